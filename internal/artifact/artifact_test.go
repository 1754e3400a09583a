package artifact

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	sort.Strings(out)
	return out
}

func TestParseLibName(t *testing.T) {
	tests := []struct {
		file, goos string
		name       string
		kind       Kind
	}{
		{"libfoo.so", "linux", "foo", Shared},
		{"libfoo.so.1", "linux", "foo", Shared},
		{"libfoo.so.1.2.3", "android", "foo", Shared},
		{"libbar.a", "linux", "bar", Static},
		{"libbar.a", "darwin", "bar", Static},
		{"libtensorflowlite.so", "linux", "tensorflowlite", Shared},
		{"libtensorflowlite-gpu.so.2", "linux", "tensorflowlite-gpu", Shared},
		{"libfoo.dylib", "darwin", "foo", Shared},
		{"libfoo.1.2.dylib", "darwin", "foo", Shared},
		{"libfoo.dylib", "linux", "", NotLibrary},
		{"libfoo.so", "darwin", "", NotLibrary},
		{"libfoo.so.x", "linux", "", NotLibrary},
		{"libfoo.so.1.", "linux", "", NotLibrary},
		{"foo.so", "linux", "", NotLibrary},
		{"lib.so", "linux", "", NotLibrary},
		{"lib.a", "linux", "", NotLibrary},
		{"libfoo.txt", "linux", "", NotLibrary},
		{"libfoo.so.txt", "linux", "", NotLibrary},
	}
	for _, tt := range tests {
		name, kind := ParseLibName(tt.file, tt.goos)
		if name != tt.name || kind != tt.kind {
			t.Errorf("ParseLibName(%q, %q) = %q, %v; want %q, %v", tt.file, tt.goos, name, kind, tt.name, tt.kind)
		}
	}
}

func TestKindString(t *testing.T) {
	if Shared.String() != "dylib" || Static.String() != "static" || NotLibrary.String() != "none" {
		t.Errorf("Kind strings = %s %s %s", Shared, Static, NotLibrary)
	}
}

func TestWalkNested(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libtensorflowlite.so"), "a")
	writeFile(t, filepath.Join(root, "a", "b", "c", "d", "libtensorflowlite.so.2"), "b")
	writeFile(t, filepath.Join(root, "a", "libother.so"), "c")
	writeFile(t, filepath.Join(root, "a", "b", "notes.txt"), "d")
	writeFile(t, filepath.Join(root, "x", "libtensorflowlite.so.txt"), "e")

	res := Walk(root, func(name string) bool {
		n, kind := ParseLibName(name, "linux")
		return kind != NotLibrary && n == "tensorflowlite"
	})
	if res.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", res.Skipped)
	}
	got := rel(t, root, res.Paths)
	want := []string{"a/b/c/d/libtensorflowlite.so.2", "libtensorflowlite.so"}
	if !slices.Equal(got, want) {
		t.Errorf("Walk = %v, want %v", got, want)
	}
}

func TestWalkDeep(t *testing.T) {
	root := t.TempDir()
	dir := root
	for i := 0; i < 64; i++ {
		dir = filepath.Join(dir, "d")
	}
	writeFile(t, filepath.Join(dir, "libdeep.a"), "x")

	res := Walk(root, func(name string) bool { return IsLibrary(name, "linux") })
	if len(res.Paths) != 1 {
		t.Fatalf("Walk found %d files, want 1", len(res.Paths))
	}
}

func TestWalkUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libok.so"), "x")
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "libhidden.so"), "y")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	res := Walk(root, func(name string) bool { return IsLibrary(name, "linux") })
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if got := rel(t, root, res.Paths); !slices.Equal(got, []string{"libok.so"}) {
		t.Errorf("Walk = %v", got)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	res := Walk(filepath.Join(t.TempDir(), "missing"), func(string) bool { return true })
	if len(res.Paths) != 0 || res.Skipped != 1 {
		t.Errorf("Walk on missing root = %+v", res)
	}
}

func TestWalkSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real", "libfoo.so.1"), "x")
	if err := os.Symlink("libfoo.so.1", filepath.Join(root, "real", "libfoo.so")); err != nil {
		t.Skipf("symlink: %v", err)
	}
	// A directory cycle like the ones bazel output trees contain.
	if err := os.Symlink("..", filepath.Join(root, "real", "loop")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("missing", filepath.Join(root, "libdangling.so")); err != nil {
		t.Fatal(err)
	}

	res := Walk(root, func(name string) bool { return IsLibrary(name, "linux") })
	want := []string{"real/libfoo.so", "real/libfoo.so.1"}
	if got := rel(t, root, res.Paths); !slices.Equal(got, want) {
		t.Errorf("Walk = %v, want %v", got, want)
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tensorflow", "lite", "libtensorflowlite.so"), "x")
	writeFile(t, filepath.Join(root, "_deps", "libtensorflowlite_gpu.so"), "y")

	l := &Locator{GOOS: "linux"}
	res := l.Locate(root, "tensorflowlite")
	if got := rel(t, root, res.Paths); !slices.Equal(got, []string{"tensorflow/lite/libtensorflowlite.so"}) {
		t.Errorf("Locate = %v", got)
	}
	if res := l.Locate(root, "tensorflow-lite"); len(res.Paths) != 0 {
		t.Errorf("Locate of absent library = %v", res.Paths)
	}
}

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a"), filepath.Join(dir, "b"), filepath.Join(dir, "c")
	writeFile(t, a, "same")
	writeFile(t, b, "same")
	writeFile(t, c, "diff")

	da, err := Digest(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(da) != 64 {
		t.Errorf("digest length = %d, want 64", len(da))
	}
	if !sameContent(a, b) {
		t.Error("sameContent(a, b) = false")
	}
	if sameContent(a, c) {
		t.Error("sameContent(a, c) = true")
	}
	if sameContent(a, filepath.Join(dir, "missing")) {
		t.Error("sameContent with missing file = true")
	}
	if _, err := Digest(filepath.Join(dir, "missing")); err == nil {
		t.Error("Digest of missing file succeeded")
	}
}
