package aspnet

import (
	"io"

	"github.com/tbckr/commit-resolver/internal/commitlink"
	"github.com/tbckr/commit-resolver/internal/output"
	"github.com/tbckr/commit-resolver/internal/services"
)

// MultiResult holds framework results in the order the versions were requested.
type MultiResult struct {
	services.MultiResultBase[Result, *Result]
}

// Commits returns the resolved commits in input order.
func (m *MultiResult) Commits() []string {
	commits := make([]string, 0, len(m.Results))
	for _, r := range m.Results {
		commits = append(commits, r.Commit)
	}
	return commits
}

// WriteText writes the component header followed by a commit permalink for a
// single version or compare links between consecutive versions.
func (m *MultiResult) WriteText(w io.Writer) error {
	return commitlink.WriteBlock(w, commitlink.AspNetCoreApp, m.Commits())
}

// WriteTable renders one row per version with its commit and permalink.
func (m *MultiResult) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(m.Results))
	for _, r := range m.Results {
		link := ""
		if r.Commit != "" {
			link = commitlink.AspNetCoreApp.Repo.Commit(r.Commit)
		}
		rows = append(rows, []string{r.Version, r.Commit, link})
	}
	return output.WriteTable(w, []string{"Version", "Commit", "Link"}, rows)
}
