// Package archive extracts single entries from zip-format release artifacts
// (NuGet packages and runtime zips) into temporary files.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/tbckr/commit-resolver/internal/apperr"
)

// EntryPath joins archive-internal path segments with the zip separator.
func EntryPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// ExtractEntry copies the entry named entryName from the zip at archivePath into
// a new temporary file in tempDir (os.TempDir when empty) and returns its path.
// Lookup is exact; backslashes in either name are treated as the zip separator.
// The caller owns the returned file and should Remove it when done.
func ExtractEntry(archivePath, entryName, tempDir string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer func() { _ = r.Close() }()

	name := strings.ReplaceAll(entryName, `\`, "/")
	var entry *zip.File
	for _, f := range r.File {
		if strings.ReplaceAll(f.Name, `\`, "/") == name {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", fmt.Errorf("%w: %q in %s", apperr.ErrEntryNotFound, name, archivePath)
	}

	out, err := os.CreateTemp(tempDir, "commit-resolver-entry-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := out.Name()

	if err := copyEntry(out, entry); err != nil {
		_ = out.Close()
		Remove(path)
		return "", fmt.Errorf("extracting %q: %w", name, err)
	}
	if err := out.Close(); err != nil {
		Remove(path)
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

func copyEntry(w io.Writer, entry *zip.File) (err error) {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rc.Close()) }()
	_, err = io.Copy(w, rc) //nolint:gosec // entries come from official release feeds; size is bounded by the download
	return err
}

// Remove deletes path, ignoring every error.
func Remove(path string) {
	_ = os.Remove(path)
}
