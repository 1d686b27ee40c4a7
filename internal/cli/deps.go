package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"

	"github.com/tbckr/commit-resolver/internal/appdir"
	"github.com/tbckr/commit-resolver/internal/config"
	"github.com/tbckr/commit-resolver/internal/feedurl"
	"github.com/tbckr/commit-resolver/internal/fetch"
	"github.com/tbckr/commit-resolver/internal/output"
	"github.com/tbckr/commit-resolver/internal/services/aspnet"
	runtimesvc "github.com/tbckr/commit-resolver/internal/services/runtime"
)

// clientFactory matches httpclient.New.
type clientFactory func(proxy, userAgent string, logger *slog.Logger, debug bool) (*req.Client, error)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger    *slog.Logger
	cfg       *config.Config
	newClient clientFactory
}

// buildDeps resolves config and logger. The HTTP client is built on demand so
// that commands which never download do not construct one.
func buildDeps(cmd *cobra.Command, stderr io.Writer, newClient clientFactory) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return &deps{cfg: cfg, logger: logger, newClient: newClient}, nil
}

// newFetcher creates the shared HTTP client and a Fetcher with the configured
// retry count and per-attempt timeout.
func (d *deps) newFetcher() (*fetch.Fetcher, error) {
	client, err := d.newClient(d.cfg.Proxy, d.cfg.UserAgent, d.logger, d.cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	f := fetch.New(client, d.logger)
	f.MaxRetries = d.cfg.Retries
	f.Timeout = d.cfg.Timeout
	return f, nil
}

func (d *deps) newAspNetService() (*aspnet.Service, error) {
	feed, err := feedurl.Parse("aspnet_feed_url", d.cfg.AspNetFeedURL)
	if err != nil {
		return nil, err
	}
	tempDir, err := appdir.TempDir(d.cfg.TempDir)
	if err != nil {
		return nil, err
	}
	f, err := d.newFetcher()
	if err != nil {
		return nil, err
	}
	return aspnet.NewService(f, feed, tempDir, d.logger), nil
}

func (d *deps) newRuntimeService() (*runtimesvc.Service, error) {
	feed, err := feedurl.Parse("runtime_feed_url", d.cfg.RuntimeFeedURL)
	if err != nil {
		return nil, err
	}
	tempDir, err := appdir.TempDir(d.cfg.TempDir)
	if err != nil {
		return nil, err
	}
	f, err := d.newFetcher()
	if err != nil {
		return nil, err
	}
	return runtimesvc.NewService(f, feed, d.cfg.RID, tempDir, d.logger), nil
}

// writeResult formats and writes a service result to stdout.
func writeResult(stdout io.Writer, d *deps, result any) error {
	if err := output.Write(stdout, output.Format(d.cfg.Output), result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
