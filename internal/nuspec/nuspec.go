// Package nuspec reads the source commit out of a NuGet package manifest.
package nuspec

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/tbckr/commit-resolver/internal/apperr"
)

// FileName returns the manifest entry name NuGet uses for package id.
func FileName(id string) string {
	return id + ".nuspec"
}

// element is a namespace-aware generic XML tree node.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (e *element) attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) child(space, local string) (*element, bool) {
	for i := range e.Children {
		if c := &e.Children[i]; c.XMLName.Space == space && c.XMLName.Local == local {
			return c, true
		}
	}
	return nil, false
}

// ReadCommit parses the manifest at path and returns the commit attribute of
// package/metadata/repository, where both children are qualified by the root
// element's default namespace. The value is returned verbatim.
func ReadCommit(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a temp file extracted by the caller
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}
	return ParseCommit(data)
}

// ParseCommit is ReadCommit over an in-memory manifest.
func ParseCommit(data []byte) (string, error) {
	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		return "", fmt.Errorf("%w: parsing manifest: %w", apperr.ErrMalformedMetadata, err)
	}

	ns, ok := root.attr("xmlns")
	if !ok {
		return "", fmt.Errorf("%w: manifest root <%s> declares no default namespace", apperr.ErrMalformedMetadata, root.XMLName.Local)
	}
	metadata, ok := root.child(ns, "metadata")
	if !ok {
		return "", fmt.Errorf("%w: manifest has no metadata element in namespace %q", apperr.ErrMalformedMetadata, ns)
	}
	repository, ok := metadata.child(ns, "repository")
	if !ok {
		return "", fmt.Errorf("%w: manifest metadata has no repository element", apperr.ErrMalformedMetadata)
	}
	commit, ok := repository.attr("commit")
	if !ok {
		return "", fmt.Errorf("%w: manifest repository has no commit attribute", apperr.ErrMalformedMetadata)
	}
	return commit, nil
}
