// Package fetch downloads release artifacts to local files with a bounded,
// delay-free retry loop and a per-attempt timeout.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/imroc/req/v3"
)

const (
	// DefaultMaxRetries is the number of attempts made before a download is given up.
	DefaultMaxRetries = 3
	// DefaultTimeout bounds a single attempt, including streaming the body to disk.
	DefaultTimeout = 5 * time.Second
)

// Fetcher downloads URLs through a shared req client.
type Fetcher struct {
	client *req.Client
	logger *slog.Logger

	// MaxRetries is the total number of attempts. Values below 1 mean one attempt.
	MaxRetries int
	// Timeout bounds each attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration
}

// New creates a Fetcher with DefaultMaxRetries and DefaultTimeout.
func New(client *req.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:     client,
		logger:     logger,
		MaxRetries: DefaultMaxRetries,
		Timeout:    DefaultTimeout,
	}
}

// Download fetches url into dest, overwriting any existing file.
// Every failed attempt is logged and retried immediately. Download never
// returns an error: false means every attempt failed (or ctx was cancelled)
// and the caller must not use dest.
func (f *Fetcher) Download(ctx context.Context, url, dest string) bool {
	attempts := max(f.MaxRetries, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			f.logger.Warn("download cancelled", "url", url, "attempt", attempt, "error", ctx.Err())
			return false
		}
		err := f.attempt(ctx, url, dest)
		if err == nil {
			f.logger.Debug("download complete", "url", url, "dest", dest, "attempt", attempt)
			return true
		}
		f.logger.Warn("download attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
	}
	if ctx.Err() != nil {
		return false
	}
	f.logger.Error("download failed", "url", url, "attempts", attempts)
	return false
}

// attempt performs one bounded GET and streams a 2xx body to dest.
func (f *Fetcher) attempt(ctx context.Context, url, dest string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	resp, err := f.client.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(url)
	if resp != nil && resp.Response != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	if resp.Response == nil {
		return errors.New("transport error (no response)")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest) //nolint:gosec // dest is a temp file path created by the caller
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	return nil
}

// TempFile creates an empty temp file in dir for a download and returns its
// path and a cleanup func. The cleanup logs removal failures at error level
// and never fails the caller.
func (f *Fetcher) TempFile(dir, pattern string) (string, func(), error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	path := file.Name()
	_ = file.Close()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Error("removing temp file", "path", path, "error", err)
		}
	}
	return path, cleanup, nil
}
