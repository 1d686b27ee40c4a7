package runtime_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/commit-resolver/internal/services/runtime"
)

func multi(results ...*runtime.Result) *runtime.MultiResult {
	m := &runtime.MultiResult{}
	m.Results = results
	return m
}

func TestMultiResult_WriteText_Single(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, multi(&runtime.Result{Version: "2.1.0", CoreFX: fxA, CoreCLR: clrA}).WriteText(&buf))

	want := "Microsoft.NetCore.App / Core FX\n" +
		"https://github.com/dotnet/corefx/commit/" + fxA + "\n" +
		"\n" +
		"Microsoft.NetCore.App / Core CLR\n" +
		"https://github.com/dotnet/coreclr/commit/" + clrA + "\n"
	assert.Equal(t, want, buf.String())
}

func TestMultiResult_WriteText_Compare(t *testing.T) {
	var buf bytes.Buffer
	m := multi(
		&runtime.Result{Version: "2.1.0", CoreFX: fxA, CoreCLR: clrA},
		&runtime.Result{Version: "2.1.1", CoreFX: fxB, CoreCLR: clrB},
	)
	require.NoError(t, m.WriteText(&buf))

	want := "Microsoft.NetCore.App / Core FX\n" +
		"https://github.com/dotnet/corefx/compare/" + fxA + "..." + fxB + "\n" +
		"\n" +
		"Microsoft.NetCore.App / Core CLR\n" +
		"https://github.com/dotnet/coreclr/compare/" + clrA + "..." + clrB + "\n"
	assert.Equal(t, want, buf.String())
}

func TestMultiResult_WriteText_AbsentHashSkipsLink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, multi(&runtime.Result{Version: "2.1.0", CoreCLR: clrA}).WriteText(&buf))

	want := "Microsoft.NetCore.App / Core FX\n" +
		"\n" +
		"Microsoft.NetCore.App / Core CLR\n" +
		"https://github.com/dotnet/coreclr/commit/" + clrA + "\n"
	assert.Equal(t, want, buf.String())
}

func TestMultiResult_WriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, multi(&runtime.Result{Version: "2.1.0", CoreFX: fxA, CoreCLR: clrA}).WriteTable(&buf))
	out := buf.String()
	assert.Contains(t, out, "2.1.0")
	assert.Contains(t, out, fxA)
	assert.Contains(t, out, clrA)
}

func TestResult_IsEmpty(t *testing.T) {
	assert.True(t, (&runtime.Result{Version: "2.1.0"}).IsEmpty())
	assert.False(t, (&runtime.Result{Version: "2.1.0", CoreCLR: clrA}).IsEmpty())
}
