package artifact

import (
	"os"
	"path/filepath"
)

// Result is the outcome of a best-effort walk: the matching files in the
// order they were found and the number of directories that could not be read.
type Result struct {
	Paths   []string
	Skipped int
}

// Walk collects the regular files under root whose base name satisfies match.
//
// The tree is traversed depth-first with an explicit stack, so depth is only
// bounded by memory. Directories that cannot be read are skipped and counted.
// Symlinks to directories are not followed; symlinks to regular files are
// collected.
func Walk(root string, match func(name string) bool) Result {
	var res Result
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			res.Skipped++
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			switch typ := entry.Type(); {
			case typ.IsDir():
				stack = append(stack, path)
				continue
			case typ&os.ModeSymlink != 0:
				fi, err := os.Stat(path)
				if err != nil || !fi.Mode().IsRegular() {
					continue
				}
			case !typ.IsRegular():
				continue
			}
			if match(entry.Name()) {
				res.Paths = append(res.Paths, path)
			}
		}
	}
	return res
}
