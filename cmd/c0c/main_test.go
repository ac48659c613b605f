package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"c0c/pkg/debuginfo"
)

const hello = `
fn main() -> void {
	let n: int = getint();
	putstr("n*n=");
	putint(n * n);
	putln();
}
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCompileAndRun(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "square.c0", hello)
	bin := filepath.Join(dir, "square.o0")

	code, out, errOut := runCLI(t, "", "compile", src, bin)
	require.Equal(t, exitOK, code, errOut)
	require.Contains(t, out, "-> "+bin)
	require.FileExists(t, bin)
	require.NoFileExists(t, bin+".dbg")

	code, out, errOut = runCLI(t, "7\n", "run", bin)
	require.Equal(t, exitOK, code, errOut)
	require.Equal(t, "n*n=49\n", out)

	code, out, _ = runCLI(t, "", "disasm", bin)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "fn main")
	require.Contains(t, out, "callname")
}

func TestCompileDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.c0", hello)

	code, _, errOut := runCLI(t, "", "compile", src)
	require.Equal(t, exitOK, code, errOut)
	require.FileExists(t, filepath.Join(dir, "prog.o0"))
}

func TestCompileSidecars(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.c0", hello)
	bin := filepath.Join(dir, "prog.o0")

	code, _, errOut := runCLI(t, "", "-debug-info", "-listing", "compile", src, bin)
	require.Equal(t, exitOK, code, errOut)

	data, err := os.ReadFile(bin + ".dbg")
	require.NoError(t, err)
	info, err := debuginfo.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, src, info.Source)
	require.Equal(t, "main", info.Functions[1].Name)

	listing, err := os.ReadFile(bin + ".lst")
	require.NoError(t, err)
	require.Contains(t, string(listing), "functions (2):")
}

func TestConfigNextToInput(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.c0", hello)
	writeSource(t, dir, "c0c.toml", "[output]\nlisting = true\n")
	bin := filepath.Join(dir, "prog.o0")

	code, _, errOut := runCLI(t, "", "compile", src, bin)
	require.Equal(t, exitOK, code, errOut)
	require.FileExists(t, bin+".lst")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.c0", hello)
	cfg := writeSource(t, dir, "other.toml", "[output]\nlisitng = true\n")

	code, _, errOut := runCLI(t, "", "-config", cfg, "compile", src)
	require.Equal(t, exitError, code)
	require.Contains(t, errOut, "unknown keys")
}

func TestCompileErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.c0", "fn main() -> void {\n  putint(y);\n}\n")
	bin := filepath.Join(dir, "bad.o0")

	code, _, errOut := runCLI(t, "", "compile", src, bin)
	require.Equal(t, exitError, code)
	require.Contains(t, errOut, "not declared")
	require.Contains(t, errOut, "|> ")
	require.NoFileExists(t, bin)
}

func TestRuntimeError(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "loop.c0", "fn main() -> void { while 1 { } }")
	bin := filepath.Join(dir, "loop.o0")

	code, _, errOut := runCLI(t, "", "compile", src, bin)
	require.Equal(t, exitOK, code, errOut)

	code, _, errOut = runCLI(t, "", "-max-steps", "100", "run", bin)
	require.Equal(t, exitError, code)
	require.Contains(t, errOut, "step limit")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"link", "a.o0"}},
		{"compile without input", []string{"compile"}},
		{"run with extra args", []string{"run", "a.o0", "b.o0"}},
		{"bad flag", []string{"-nope", "run", "a.o0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, "", tt.args...)
			require.Equal(t, exitUsage, code)
		})
	}
}

func TestVerbosityFlag(t *testing.T) {
	var v verbosity
	require.NoError(t, v.Set("true"))
	require.NoError(t, v.Set("true"))
	require.NoError(t, v.Set("false"))
	require.Equal(t, verbosity(2), v)
	require.Equal(t, "2", v.String())
}
