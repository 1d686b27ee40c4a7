// Package aspnet resolves ASP.NET Core shared-framework package versions to
// the commit recorded in the package manifest.
package aspnet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tbckr/commit-resolver/internal/apperr"
	"github.com/tbckr/commit-resolver/internal/archive"
	"github.com/tbckr/commit-resolver/internal/feedurl"
	"github.com/tbckr/commit-resolver/internal/fetch"
	"github.com/tbckr/commit-resolver/internal/nuspec"
	"github.com/tbckr/commit-resolver/internal/services"
)

const (
	// Name is the service identifier.
	Name = "aspnet"
	// PackageID is the NuGet package id of the shared framework.
	PackageID = "Microsoft.AspNetCore.App"
	// DefaultFeedURL is the feed URL template used when none is configured.
	DefaultFeedURL = "https://dotnet.myget.org/F/aspnetcore-dev/api/v2/package/Microsoft.AspNetCore.App/{{ .Version }}"
)

// Service downloads a framework package and reads its manifest commit.
type Service struct {
	fetcher *fetch.Fetcher
	feed    *feedurl.Template
	tempDir string
	logger  *slog.Logger
}

// NewService creates a framework resolver. An empty tempDir uses the OS default.
func NewService(fetcher *fetch.Fetcher, feed *feedurl.Template, tempDir string, logger *slog.Logger) *Service {
	return &Service{fetcher: fetcher, feed: feed, tempDir: tempDir, logger: logger}
}

// Name returns the service identifier.
func (s *Service) Name() string { return Name }

// AggregateResults combines per-version results into a MultiResult.
func (s *Service) AggregateResults(results []services.Result) services.Result {
	mr := &MultiResult{}
	for _, r := range results {
		mr.Results = append(mr.Results, r.(*Result))
	}
	return mr
}

// Run downloads the package for version and returns the commit its manifest
// records. Temp files are removed before Run returns.
func (s *Service) Run(ctx context.Context, version string) (services.Result, error) {
	version, err := services.NormalizeVersion(version)
	if err != nil {
		return nil, err
	}
	url, err := s.feed.Render(feedurl.Params{Version: version})
	if err != nil {
		return nil, err
	}

	pkg, cleanup, err := s.fetcher.TempFile(s.tempDir, "commit-resolver-aspnet-*.nupkg")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	s.logger.Debug("downloading package", "package", PackageID, "version", version, "url", url)
	if !s.fetcher.Download(ctx, url, pkg) {
		return nil, fmt.Errorf("%w: %s %s from %s", apperr.ErrDownloadFailed, PackageID, version, url)
	}

	manifest, err := archive.ExtractEntry(pkg, nuspec.FileName(PackageID), s.tempDir)
	if err != nil {
		return nil, err
	}
	defer archive.Remove(manifest)

	commit, err := nuspec.ReadCommit(manifest)
	if err != nil {
		return nil, err
	}
	if commit == "" {
		s.logger.Warn("manifest records an empty commit", "package", PackageID, "version", version)
	}
	return &Result{Version: version, Commit: commit}, nil
}
