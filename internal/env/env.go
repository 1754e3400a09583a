// Package env resolves the build configuration from the process environment.
//
// Everything the pipeline needs to know about the target, the feature
// toggles and the build tool overrides is read here once and returned as an
// immutable *Config. No other package reads the environment.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/mod/semver"
)

var (
	// ErrNoArch is returned when the target architecture is not available.
	ErrNoArch = errors.New("target architecture not set (GOARCH)")

	// ErrNoToolchain is returned when cross-compiling to a target that has
	// no known cross triple and no toolchain file was supplied.
	ErrNoToolchain = errors.New("no cross toolchain mapping for target")
)

// host platform, overridable in tests.
var (
	hostOS   = runtime.GOOS
	hostArch = runtime.GOARCH
)

const (
	BackendCMake     = "cmake"
	BackendBazel     = "bazel"
	BackendAutotools = "autotools"
)

// Env is a snapshot of environment variables.
type Env map[string]string

// FromOS returns a snapshot of the current process environment.
func FromOS() Env {
	e := make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			e[k] = v
		}
	}
	return e
}

// Features are the toggles that change the produced binary.
type Features struct {
	Debug   bool // debug build of the library
	NoMicro bool // reduced runtime
	GPU     bool // GPU delegate enabled
}

// Define is a pass-through definition forwarded to the build tool.
type Define struct {
	Key   string
	Value string
}

// Tool holds the build tool overrides.
type Tool struct {
	Generator     string
	ToolchainFile string
	CrossTriple   string // set when cross-compiling without a toolchain file
	Jobs          int    // 0 means the tool's default
	Defines       []Define
}

// Config is the resolved build configuration. It is built once by Resolve and
// must not be modified afterwards.
type Config struct {
	GOOS     string
	GOARCH   string // normalized Go architecture name
	RawArch  string // architecture exactly as supplied
	HostOS   string
	HostArch string

	Release  bool
	Features Features
	Shared   bool

	Backend   string
	Library   string // base name of the primary library, without "lib" and extension
	Version   string // canonical semver of the wrapped library
	SourceDir string
	OutDir    string

	// Prebuilt is the user supplied directory holding a prebuilt library.
	// When set, the build tool is never invoked.
	Prebuilt    string
	PrebuiltVar string

	Tool Tool

	// Watch lists every environment variable consulted, in lookup order.
	Watch []string
}

// Debug reports whether the library is compiled with debug settings.
func (c *Config) Debug() bool {
	return !c.Release || c.Features.Debug
}

// CrossCompiling reports whether the target differs from the host.
func (c *Config) CrossCompiling() bool {
	return c.GOOS != c.HostOS || c.GOARCH != c.HostArch
}

// resolver records the variables it reads.
type resolver struct {
	env   Env
	seen  map[string]bool
	watch []string
}

// get returns the value of key, treating set-but-empty as unset.
func (r *resolver) get(key string) string {
	if !r.seen[key] {
		r.seen[key] = true
		r.watch = append(r.watch, key)
	}
	return strings.TrimSpace(r.env[key])
}

func (r *resolver) boolean(key string, def bool) (bool, error) {
	v := r.get(key)
	if v == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

// Resolve builds the configuration from the environment snapshot e, using
// file for values the environment leaves unset. A nil file means built-in
// defaults.
func Resolve(e Env, file *File) (*Config, error) {
	if file == nil {
		f, err := LoadFile("")
		if err != nil {
			return nil, err
		}
		file = f
	}
	r := &resolver{env: e, seen: make(map[string]bool)}

	rawArch := r.get("GOARCH")
	if rawArch == "" {
		return nil, ErrNoArch
	}
	goos := r.get("GOOS")
	if goos == "" {
		goos = hostOS
	}
	if _, ok := sharedExt[goos]; !ok {
		return nil, fmt.Errorf("unsupported target os %q", goos)
	}
	cfg := &Config{
		GOOS:     goos,
		GOARCH:   NormalizeArch(rawArch),
		RawArch:  rawArch,
		HostOS:   hostOS,
		HostArch: hostArch,
	}

	// Prebuilt overrides: per-architecture first, then generic.
	archVar := "TFLITE_" + strings.ToUpper(strings.ReplaceAll(rawArch, "-", "_")) + "_LIB_DIR"
	for _, key := range []string{archVar, "TFLITE_LIB_DIR"} {
		if dir := r.get(key); dir != "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			cfg.Prebuilt, cfg.PrebuiltVar = abs, key
			break
		}
	}

	cfg.Backend = firstNonEmpty(r.get("TFLITE_BACKEND"), file.Backend, BackendCMake)
	switch cfg.Backend {
	case BackendCMake, BackendBazel, BackendAutotools:
	default:
		return nil, fmt.Errorf("TFLITE_BACKEND: unknown backend %q", cfg.Backend)
	}

	switch bt := strings.ToLower(firstNonEmpty(r.get("TFLITE_BUILD_TYPE"), file.BuildType, "release")); bt {
	case "release":
		cfg.Release = true
	case "debug":
	default:
		return nil, fmt.Errorf("TFLITE_BUILD_TYPE: unknown build type %q", bt)
	}

	var err error
	if cfg.Features.Debug, err = r.boolean("TFLITE_DEBUG", file.Features.Debug); err != nil {
		return nil, err
	}
	if cfg.Features.NoMicro, err = r.boolean("TFLITE_NO_MICRO", file.Features.NoMicro); err != nil {
		return nil, err
	}
	if cfg.Features.GPU, err = r.boolean("TFLITE_GPU", file.Features.GPU); err != nil {
		return nil, err
	}
	if cfg.Shared, err = r.boolean("TFLITE_SHARED", file.Shared); err != nil {
		return nil, err
	}

	cfg.Library = firstNonEmpty(file.Library, "tensorflow-lite")

	version := firstNonEmpty(r.get("TFLITE_VERSION"), file.Version)
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return nil, fmt.Errorf("TFLITE_VERSION: invalid version %q", version)
	}
	cfg.Version = semver.Canonical(version)

	if cfg.SourceDir, err = filepath.Abs(firstNonEmpty(r.get("TFLITE_SOURCE_DIR"), file.SourceDir)); err != nil {
		return nil, fmt.Errorf("TFLITE_SOURCE_DIR: %w", err)
	}
	if cfg.OutDir, err = filepath.Abs(firstNonEmpty(r.get("TFLITE_OUT_DIR"), file.OutDir)); err != nil {
		return nil, fmt.Errorf("TFLITE_OUT_DIR: %w", err)
	}

	// Build tool overrides only matter when the tool may run.
	if cfg.Prebuilt == "" {
		if err := r.tool(cfg); err != nil {
			return nil, err
		}
	}
	cfg.Watch = r.watch
	return cfg, nil
}

// reserved keys of a backend namespace, never forwarded as definitions.
var reserved = map[string]bool{
	"GENERATOR":      true,
	"TOOLCHAIN_FILE": true,
	"PARALLELISM":    true,
}

func (r *resolver) tool(cfg *Config) error {
	prefix := "TFLITE_" + strings.ToUpper(cfg.Backend) + "_"

	if gen := r.get(prefix + "GENERATOR"); gen != "" {
		if cfg.Backend != BackendCMake {
			return fmt.Errorf("%sGENERATOR: generator override is not supported by %s", prefix, cfg.Backend)
		}
		cfg.Tool.Generator = gen
	}

	if tc := r.get(prefix + "TOOLCHAIN_FILE"); tc != "" {
		if cfg.Backend != BackendCMake {
			return fmt.Errorf("%sTOOLCHAIN_FILE: toolchain files are not supported by %s", prefix, cfg.Backend)
		}
		abs, err := filepath.Abs(tc)
		if err != nil {
			return fmt.Errorf("%sTOOLCHAIN_FILE: %w", prefix, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("%sTOOLCHAIN_FILE: %w", prefix, err)
		}
		cfg.Tool.ToolchainFile = abs
	}

	jobs, err := r.jobs(prefix + "PARALLELISM")
	if err != nil {
		return err
	}
	cfg.Tool.Jobs = jobs

	if cfg.CrossCompiling() && cfg.Tool.ToolchainFile == "" && cfg.Backend != BackendBazel {
		triple, ok := CrossTriple(cfg.GOOS, cfg.GOARCH)
		if !ok {
			return fmt.Errorf("%w %s/%s (set %sTOOLCHAIN_FILE)", ErrNoToolchain, cfg.GOOS, cfg.RawArch, prefix)
		}
		cfg.Tool.CrossTriple = triple
	}

	keys := make([]string, 0)
	for k := range r.env {
		if name, ok := strings.CutPrefix(k, prefix); ok && name != "" && !reserved[name] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := r.get(k)
		if v == "" {
			continue
		}
		cfg.Tool.Defines = append(cfg.Tool.Defines, Define{Key: strings.TrimPrefix(k, prefix), Value: v})
	}
	return nil
}

// jobs resolves parallelism: explicit override, then NUM_JOBS, then 0.
func (r *resolver) jobs(key string) (int, error) {
	for _, k := range []string{key, "NUM_JOBS"} {
		v := r.get(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s: want a positive integer, got %q", k, v)
		}
		return n, nil
	}
	return 0, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
