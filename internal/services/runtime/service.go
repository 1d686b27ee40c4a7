// Package runtime resolves .NET Core runtime versions to the Core FX and Core
// CLR commits embedded in the shipped framework assemblies.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tbckr/commit-resolver/internal/apperr"
	"github.com/tbckr/commit-resolver/internal/archive"
	"github.com/tbckr/commit-resolver/internal/assembly"
	"github.com/tbckr/commit-resolver/internal/feedurl"
	"github.com/tbckr/commit-resolver/internal/fetch"
	"github.com/tbckr/commit-resolver/internal/services"
)

const (
	// Name is the service identifier.
	Name = "runtime"
	// DefaultFeedURL is the runtime zip URL template used when none is configured.
	DefaultFeedURL = "https://dotnetcli.azureedge.net/dotnet/Runtime/{{ .Version }}/dotnet-runtime-{{ .Version }}-{{ .RID }}.zip"
	// DefaultRID is the runtime identifier of the downloaded build.
	DefaultRID = "win-x64"

	// FXAssembly carries the Core FX commit.
	FXAssembly = "System.Collections.dll"
	// CLRAssembly carries the Core CLR commit.
	CLRAssembly = "SOS.NETCore.dll"
)

// EntryName returns the archive path of a shared framework assembly.
func EntryName(version, assemblyName string) string {
	return archive.EntryPath("shared", "Microsoft.NETCore.App", version, assemblyName)
}

// Service downloads a runtime zip and reads the commits of its FX and CLR assemblies.
type Service struct {
	fetcher *fetch.Fetcher
	feed    *feedurl.Template
	rid     string
	tempDir string
	logger  *slog.Logger
}

// NewService creates a runtime resolver. An empty rid selects DefaultRID and an
// empty tempDir the OS default.
func NewService(fetcher *fetch.Fetcher, feed *feedurl.Template, rid, tempDir string, logger *slog.Logger) *Service {
	if rid == "" {
		rid = DefaultRID
	}
	return &Service{fetcher: fetcher, feed: feed, rid: rid, tempDir: tempDir, logger: logger}
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

// Run downloads the runtime zip for version once and reads both commits from
// it. A module whose informational version holds no commit yields an empty
// hash and a warning. Temp files are removed before Run returns.
func (s *Service) Run(ctx context.Context, version string) (services.Result, error) {
	version, err := services.NormalizeVersion(version)
	if err != nil {
		return nil, err
	}
	url, err := s.feed.Render(feedurl.Params{Version: version, RID: s.rid})
	if err != nil {
		return nil, err
	}

	pkg, cleanup, err := s.fetcher.TempFile(s.tempDir, "commit-resolver-runtime-*.zip")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	s.logger.Debug("downloading runtime", "version", version, "rid", s.rid, "url", url)
	if !s.fetcher.Download(ctx, url, pkg) {
		return nil, fmt.Errorf("%w: runtime %s (%s) from %s", apperr.ErrDownloadFailed, version, s.rid, url)
	}

	fx, err := s.readCommit(pkg, version, FXAssembly)
	if err != nil {
		return nil, err
	}
	clr, err := s.readCommit(pkg, version, CLRAssembly)
	if err != nil {
		return nil, err
	}
	return &Result{Version: version, CoreFX: fx, CoreCLR: clr}, nil
}

func (s *Service) readCommit(pkg, version, assemblyName string) (string, error) {
	module, err := archive.ExtractEntry(pkg, EntryName(version, assemblyName), s.tempDir)
	if err != nil {
		return "", err
	}
	defer archive.Remove(module)

	commit, err := assembly.ReadCommit(module)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", assemblyName, err)
	}
	if commit == "" {
		s.logger.Warn("no commit hash in informational version", "version", version, "assembly", assemblyName)
	}
	return commit, nil
}
