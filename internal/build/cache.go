package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/tflbuild/internal/env"
	"github.com/goplus/tflbuild/internal/variant"
)

// Output directory layout:
//
//	outDir/
//	  lib<library><variant>.so|.a     # installed primary library
//	  lib*.so*, lib*.a, lib*.dylib    # installed dependencies
//	  tflbuild.yaml                   # manifest of the last run
//	  tflite_cmake_build/<tree>/      # cmake build trees
//	  tflite_bazel_build/<tree>/      # bazel output user roots
//	  tflite_autotools_build/<tree>/  # autotools build trees
//
// <tree> is named by treeName, e.g. release, release-gpu, debug-no_micro or
// release-static. The build trees double as the build tool's own cache: they
// are never removed, so a later run of the same variant only re-runs the
// incremental build step.

// treeName names the build tree of cfg after everything that changes the
// configure step: build type, variant tags and linkage.
func treeName(cfg *env.Config) string {
	name := "release"
	if cfg.Debug() {
		name = "debug"
	}
	// the debug tag implies a debug build type
	name += strings.TrimPrefix(variant.Key(cfg), variant.TagDebug)
	if !cfg.Shared {
		name += "-static"
	}
	return name
}

// buildDir returns the build tree of tool for cfg.
func buildDir(cfg *env.Config, tool string) string {
	return filepath.Join(cfg.OutDir, "tflite_"+tool+"_build", treeName(cfg))
}

// cached returns the installed primary library for cfg, trying the preferred
// linkage first, or "" when neither form exists. Only existence is checked.
func cached(cfg *env.Config) string {
	for _, static := range []bool{!cfg.Shared, cfg.Shared} {
		path := filepath.Join(cfg.OutDir, variant.ArtifactFile(cfg, static))
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			return path
		}
	}
	return ""
}
