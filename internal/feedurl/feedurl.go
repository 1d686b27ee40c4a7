// Package feedurl renders release feed URLs from text/template strings with
// the Sprig function set, so feeds can be re-pointed from config.
package feedurl

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/tbckr/commit-resolver/internal/apperr"
)

// Params are the values a feed template can reference.
type Params struct {
	// Version is the requested package or runtime version.
	Version string
	// RID is the .NET runtime identifier of the requested platform build.
	RID string
}

// Template is a parsed feed URL template.
type Template struct {
	raw  string
	tmpl *template.Template
}

// Parse compiles raw. References to fields other than those of Params fail
// at Render time.
func Parse(name, raw string) (*Template, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s template: %w", apperr.ErrInvalidInput, name, err)
	}
	return &Template{raw: raw, tmpl: tmpl}, nil
}

// String returns the unparsed template text.
func (t *Template) String() string { return t.raw }

// Render executes the template and checks the result is an absolute http(s) URL.
func (t *Template) Render(p Params) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("%w: rendering %s template: %w", apperr.ErrInvalidInput, t.tmpl.Name(), err)
	}
	rendered := strings.TrimSpace(b.String())
	u, err := url.Parse(rendered)
	if err != nil {
		return "", fmt.Errorf("%w: %s template rendered invalid URL %q: %w", apperr.ErrInvalidInput, t.tmpl.Name(), rendered, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s template rendered %q, want an absolute http(s) URL", apperr.ErrInvalidInput, t.tmpl.Name(), rendered)
	}
	return rendered, nil
}
