// Package variant derives the cache key that keeps artifacts built with
// different binary-affecting toggles apart.
package variant

import (
	"strings"

	"github.com/goplus/tflbuild/internal/env"
)

// Tags in key order. The order is part of the artifact file name and must not
// change between releases.
const (
	TagDebug   = "-debug"
	TagNoMicro = "-no_micro"
	TagGPU     = "-gpu"
)

// Key returns the variant key of cfg: one tag per enabled toggle, in the
// order debug, no_micro, gpu. It is empty when no toggle is set.
func Key(cfg *env.Config) string {
	var b strings.Builder
	if cfg.Features.Debug {
		b.WriteString(TagDebug)
	}
	if cfg.Features.NoMicro {
		b.WriteString(TagNoMicro)
	}
	if cfg.Features.GPU {
		b.WriteString(TagGPU)
	}
	return b.String()
}

// LibraryName returns the logical link name of the primary library.
func LibraryName(cfg *env.Config) string {
	return cfg.Library + Key(cfg)
}

// ArtifactFile returns the installed file name of the primary library.
func ArtifactFile(cfg *env.Config, static bool) string {
	ext := env.SharedExt(cfg.GOOS)
	if static {
		ext = env.StaticExt(cfg.GOOS)
	}
	return "lib" + LibraryName(cfg) + ext
}
