package security

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveWithin(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name  string
		elems []string
		want  string
	}{
		{name: "nested file", elems: []string{"modules", "check.sh"}, want: filepath.Join(base, "modules", "check.sh")},
		{name: "safe parent reference", elems: []string{"a", "b", "..", "c"}, want: filepath.Join(base, "a", "c")},
		{name: "absolute element stays inside", elems: []string{"/etc/passwd"}, want: filepath.Join(base, "etc", "passwd")},
		{name: "dot", elems: []string{"."}, want: base},
		{name: "no elements", want: base},
		{name: "messy relative", elems: []string{"./a/./b/../c/./d"}, want: filepath.Join(base, "a", "c", "d")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithin(base, tt.elems...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolveWithinBlocksEscape(t *testing.T) {
	base := t.TempDir()

	for _, elems := range [][]string{
		{".."},
		{"..", "..", "etc", "passwd"},
		{"a", "..", "..", "etc"},
		{"../bin/sh"},
	} {
		_, err := ResolveWithin(base, elems...)
		if !errors.Is(err, ErrPathEscape) {
			t.Errorf("ResolveWithin(%v) error = %v, want ErrPathEscape", elems, err)
		}
	}
}

func TestResolveWithinEmptyBase(t *testing.T) {
	_, err := ResolveWithin("", "file")
	if err == nil || !strings.Contains(err.Error(), "base directory is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckDataPath(t *testing.T) {
	dir := t.TempDir()

	if err := CheckDataPath(filepath.Join(dir, "vulndb.json")); err != nil {
		t.Errorf("expected valid path, got %v", err)
	}
	for _, p := range []string{"", "/", dir + "/../vulndb.json"} {
		if err := CheckDataPath(p); !errors.Is(err, ErrUnsafePath) {
			t.Errorf("CheckDataPath(%q) = %v, want ErrUnsafePath", p, err)
		}
	}
}
