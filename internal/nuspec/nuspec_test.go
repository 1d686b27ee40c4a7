package nuspec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/commit-resolver/internal/apperr"
	"github.com/tbckr/commit-resolver/internal/nuspec"
	"github.com/tbckr/commit-resolver/internal/testutil"
)

const commit = "abc1234567890abcdef1234567890abcdef12345"

func TestParseCommit_Minimal(t *testing.T) {
	doc := `<package xmlns="ns"><metadata><repository commit="` + commit + `"/></metadata></package>`

	got, err := nuspec.ParseCommit([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, commit, got)
}

func TestReadCommit_RealisticManifest(t *testing.T) {
	path := testutil.WriteFile(t, "Microsoft.AspNetCore.App.nuspec", testutil.Nuspec(testutil.NuspecNamespace, commit))

	got, err := nuspec.ReadCommit(path)
	require.NoError(t, err)
	assert.Equal(t, commit, got)
}

func TestParseCommit_Verbatim(t *testing.T) {
	// No validation: whatever the attribute holds is returned unchanged.
	doc := `<package xmlns="ns"><metadata><repository commit="not-a-hash"/></metadata></package>`

	got, err := nuspec.ParseCommit([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "not-a-hash", got)
}

func TestParseCommit_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", `this is not xml`},
		{"unterminated", `<package xmlns="ns"><metadata>`},
		{"no default namespace", `<package><metadata><repository commit="` + commit + `"/></metadata></package>`},
		{"no metadata", `<package xmlns="ns"><files/></package>`},
		{"no repository", `<package xmlns="ns"><metadata><id>x</id></metadata></package>`},
		{"no commit attribute", `<package xmlns="ns"><metadata><repository type="git"/></metadata></package>`},
		{"metadata in other namespace", `<package xmlns="ns"><metadata xmlns="other"><repository commit="` + commit + `"/></metadata></package>`},
		{"repository nested too deep", `<package xmlns="ns"><metadata><group><repository commit="` + commit + `"/></group></metadata></package>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := nuspec.ParseCommit([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrMalformedMetadata)
		})
	}
}

func TestParseCommit_PrefixedChildrenInRootNamespace(t *testing.T) {
	doc := `<package xmlns="ns" xmlns:n="ns"><n:metadata><n:repository commit="` + commit + `"/></n:metadata></package>`

	got, err := nuspec.ParseCommit([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, commit, got)
}

func TestReadCommit_MissingFile(t *testing.T) {
	_, err := nuspec.ReadCommit(t.TempDir() + "/missing.nuspec")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrMalformedMetadata)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Microsoft.AspNetCore.App.nuspec", nuspec.FileName("Microsoft.AspNetCore.App"))
}
