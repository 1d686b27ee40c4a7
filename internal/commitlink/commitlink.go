// Package commitlink renders resolved commit hashes as repository permalinks
// and pairwise compare links.
package commitlink

import (
	"fmt"
	"io"
)

// Repository is the base URL of a GitHub repository.
type Repository string

// Upstream repositories the shipped components are built from.
const (
	AspNetCore Repository = "https://github.com/aspnet/AspNetCore"
	CoreFX     Repository = "https://github.com/dotnet/corefx"
	CoreCLR    Repository = "https://github.com/dotnet/coreclr"
)

// Commit returns the permalink of hash.
func (r Repository) Commit(hash string) string {
	return fmt.Sprintf("%s/commit/%s", r, hash)
}

// Compare returns the link comparing from with to.
func (r Repository) Compare(from, to string) string {
	return fmt.Sprintf("%s/compare/%s...%s", r, from, to)
}

// Component is a titled block of links in text output.
type Component struct {
	Title string
	Repo  Repository
}

// Components printed by the resolvers.
var (
	AspNetCoreApp = Component{Title: "Microsoft.AspNetCore.App", Repo: AspNetCore}
	NetCoreFX     = Component{Title: "Microsoft.NetCore.App / Core FX", Repo: CoreFX}
	NetCoreCLR    = Component{Title: "Microsoft.NetCore.App / Core CLR", Repo: CoreCLR}
)

// CompareLinks returns one compare link per consecutive pair of hashes, in
// order. Fewer than two hashes yield no links; pairs with an absent ("") hash
// are skipped.
func CompareLinks(repo Repository, hashes []string) []string {
	var links []string
	for i := 1; i < len(hashes); i++ {
		if hashes[i-1] == "" || hashes[i] == "" {
			continue
		}
		links = append(links, repo.Compare(hashes[i-1], hashes[i]))
	}
	return links
}

// Links returns the permalink for a single hash and the compare links otherwise.
func Links(repo Repository, hashes []string) []string {
	if len(hashes) == 1 {
		if hashes[0] == "" {
			return nil
		}
		return []string{repo.Commit(hashes[0])}
	}
	return CompareLinks(repo, hashes)
}

// WriteBlock writes the component title followed by its links, one per line.
func WriteBlock(w io.Writer, c Component, hashes []string) error {
	if _, err := fmt.Fprintln(w, c.Title); err != nil {
		return err
	}
	for _, link := range Links(c.Repo, hashes) {
		if _, err := fmt.Fprintln(w, link); err != nil {
			return err
		}
	}
	return nil
}
