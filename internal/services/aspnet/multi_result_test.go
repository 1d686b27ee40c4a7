package aspnet_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/commit-resolver/internal/output"
	"github.com/tbckr/commit-resolver/internal/services/aspnet"
)

func multi(results ...*aspnet.Result) *aspnet.MultiResult {
	m := &aspnet.MultiResult{}
	m.Results = results
	return m
}

func TestMultiResult_WriteText_Single(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, multi(&aspnet.Result{Version: "2.1.0", Commit: commitA}).WriteText(&buf))
	assert.Equal(t,
		"Microsoft.AspNetCore.App\nhttps://github.com/aspnet/AspNetCore/commit/"+commitA+"\n",
		buf.String())
}

func TestMultiResult_WriteText_Compare(t *testing.T) {
	var buf bytes.Buffer
	m := multi(
		&aspnet.Result{Version: "2.1.0", Commit: commitA},
		&aspnet.Result{Version: "2.1.1", Commit: commitB},
	)
	require.NoError(t, m.WriteText(&buf))
	assert.Equal(t,
		"Microsoft.AspNetCore.App\nhttps://github.com/aspnet/AspNetCore/compare/"+commitA+"..."+commitB+"\n",
		buf.String())
}

func TestMultiResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	m := multi(&aspnet.Result{Version: "2.1.0", Commit: commitA})
	require.NoError(t, output.Write(&buf, output.FormatJSON, m))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2.1.0", got[0]["version"])
	assert.Equal(t, commitA, got[0]["commit"])
}

func TestMultiResult_WriteTable(t *testing.T) {
	var buf bytes.Buffer
	m := multi(&aspnet.Result{Version: "2.1.0", Commit: commitA}, &aspnet.Result{Version: "2.1.1"})
	require.NoError(t, m.WriteTable(&buf))
	out := buf.String()
	assert.Contains(t, out, "2.1.0")
	assert.Contains(t, out, "2.1.1")
	assert.Contains(t, out, commitA)
}

func TestMultiResult_IsEmpty(t *testing.T) {
	assert.True(t, multi().IsEmpty())
	assert.True(t, multi(&aspnet.Result{Version: "2.1.0"}).IsEmpty())
	assert.False(t, multi(&aspnet.Result{Version: "2.1.0", Commit: commitA}).IsEmpty())
}
