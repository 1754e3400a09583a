// Package artifact finds library files in build output trees and installs
// them into the build-local output directory.
package artifact

import (
	"go.uber.org/zap"
)

// Locator finds the primary library in a build output tree whose layout is
// controlled by the build tool.
type Locator struct {
	GOOS string
	Log  *zap.Logger
}

// Locate returns the files under root named after the library base, with an
// optional version suffix, e.g. libtensorflowlite.so and
// libtensorflowlite.so.2. The result is not in walk order: it is sorted
// shallowest first, then in version order, then by path, so the same tree
// always yields the same list whatever order the file system lists it in.
// An empty result is logged as a warning; deciding whether it is fatal is
// left to the caller.
func (l *Locator) Locate(root, base string) Result {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	res := Walk(root, func(name string) bool {
		n, kind := ParseLibName(name, l.GOOS)
		return kind != NotLibrary && n == base
	})
	if res.Skipped > 0 {
		log.Debug("skipped unreadable directories", zap.String("root", root), zap.Int("count", res.Skipped))
	}
	sortPaths(res.Paths)
	if len(res.Paths) == 0 {
		log.Warn("library not found in build output", zap.String("library", "lib"+base), zap.String("root", root))
		return res
	}
	for _, p := range res.Paths {
		log.Debug("found library", zap.String("path", p))
	}
	return res
}
