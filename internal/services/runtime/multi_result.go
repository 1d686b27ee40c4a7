package runtime

import (
	"fmt"
	"io"

	"github.com/tbckr/commit-resolver/internal/commitlink"
	"github.com/tbckr/commit-resolver/internal/output"
	"github.com/tbckr/commit-resolver/internal/services"
)

// MultiResult holds runtime results in the order the versions were requested.
type MultiResult struct {
	services.MultiResultBase[Result, *Result]
}

// FXCommits returns the Core FX commits in input order.
func (m *MultiResult) FXCommits() []string {
	commits := make([]string, 0, len(m.Results))
	for _, r := range m.Results {
		commits = append(commits, r.CoreFX)
	}
	return commits
}

// CLRCommits returns the Core CLR commits in input order.
func (m *MultiResult) CLRCommits() []string {
	commits := make([]string, 0, len(m.Results))
	for _, r := range m.Results {
		commits = append(commits, r.CoreCLR)
	}
	return commits
}

// WriteText writes the Core FX block, a blank line, then the Core CLR block.
func (m *MultiResult) WriteText(w io.Writer) error {
	if err := commitlink.WriteBlock(w, commitlink.NetCoreFX, m.FXCommits()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return commitlink.WriteBlock(w, commitlink.NetCoreCLR, m.CLRCommits())
}

// WriteTable renders one row per version with both commits.
func (m *MultiResult) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(m.Results))
	for _, r := range m.Results {
		rows = append(rows, []string{r.Version, r.CoreFX, r.CoreCLR})
	}
	return output.WriteTable(w, []string{"Version", "Core FX", "Core CLR"}, rows)
}
