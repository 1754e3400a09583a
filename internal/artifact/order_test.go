package artifact

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestCompareNames(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "2.0", -1},
		{"1.2.10", "1.2.9", 1},
		{"1.10", "1.9", 1},
		{"01", "1", 0},
		{"1.001", "1.1", 0},
		{"", "", 0},
		{"1", "", 1},
		{"1.0~rc1", "1.0", -1},
		{"~", "", -1},
		{"a", "1", 1},
		{"1.0a", "1.0", 1},
		{"1.0.0-rc10", "1.0.0-rc9", 1},
		{"2.6.32", "2.6.32.1", -1},
		{"1-2", "1.2", -1},
		{"1_2", "1.2", 1},
		{"libfoo.so", "libfoo.so.1", -1},
		{"libfoo.so.2", "libfoo.so.10", -1},
		{"libfoo.2.dylib", "libfoo.10.dylib", -1},
	}
	for _, tt := range tests {
		got := compareNames(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("compareNames(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if back := compareNames(tt.b, tt.a); back != -tt.want {
			t.Errorf("compareNames(%q, %q) = %d, want %d", tt.b, tt.a, back, -tt.want)
		}
	}
}

func TestSortPaths(t *testing.T) {
	paths := []string{
		filepath.Join("b", "x", "libfoo.so"),
		filepath.Join("b", "libfoo.so.10"),
		filepath.Join("b", "libfoo.so.2"),
		filepath.Join("a", "libfoo.so.2"),
		filepath.Join("b", "libfoo.so"),
	}
	sortPaths(paths)
	want := []string{
		filepath.Join("b", "libfoo.so"),
		filepath.Join("a", "libfoo.so.2"),
		filepath.Join("b", "libfoo.so.2"),
		filepath.Join("b", "libfoo.so.10"),
		filepath.Join("b", "x", "libfoo.so"),
	}
	if !slices.Equal(paths, want) {
		t.Errorf("sortPaths = %v, want %v", paths, want)
	}
}
