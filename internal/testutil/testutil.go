// Package testutil provides shared test helpers: a discarding logger and
// builders for the release artifacts the resolvers download (zip packages,
// nuspec manifests and managed PE modules).
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// BuildZip returns a zip archive holding entries, written in name order.
func BuildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %q: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("writing zip entry %q: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to name inside a fresh test temp dir and returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// NuspecNamespace is the namespace current NuGet packages declare.
const NuspecNamespace = "http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd"

// Nuspec returns a package manifest declaring ns whose repository element
// carries commit.
func Nuspec(ns, commit string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<package xmlns="%s">
  <metadata minClientVersion="2.12">
    <id>Microsoft.AspNetCore.App</id>
    <version>2.1.0</version>
    <authors>Microsoft</authors>
    <repository type="git" url="https://github.com/aspnet/AspNetCore" commit="%s" />
  </metadata>
</package>
`, ns, commit))
}

// DirEntries returns the names in dir, failing the test on error.
func DirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
