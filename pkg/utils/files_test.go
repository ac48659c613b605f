package utils

import (
	"path/filepath"
	"testing"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"prog.c0", ".o0", "prog.o0"},
		{"dir/prog", ".o0", "dir/prog.o0"},
		{"out.o0", ".dbg", "out.dbg"},
		{"a.b.c0", ".lst", "a.b.lst"},
	}
	for _, tt := range tests {
		if got := ReplaceExt(tt.path, tt.ext); got != tt.want {
			t.Errorf("ReplaceExt(%q, %q) = %q; want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

func TestGetPathInfo(t *testing.T) {
	dir := t.TempDir()
	full, parent, err := GetPathInfo(filepath.Join(dir, "sub", "..", "prog.c0"))
	if err != nil {
		t.Fatal(err)
	}
	if full != filepath.Join(dir, "prog.c0") {
		t.Errorf("full = %q", full)
	}
	if parent != dir {
		t.Errorf("parent = %q; want %q", parent, dir)
	}
}
