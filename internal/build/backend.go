package build

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/tflbuild/internal/env"
	"github.com/goplus/tflbuild/pkgs/buildsys"
	"github.com/goplus/tflbuild/pkgs/buildsys/autotools"
	"github.com/goplus/tflbuild/pkgs/buildsys/bazel"
	"github.com/goplus/tflbuild/pkgs/buildsys/cmake"
)

// Backend is a configured build tool together with the base name of the
// library it produces.
type Backend struct {
	buildsys.BuildSystem
	Produces string

	// ConfigDir, if set, is the suffix of the output directory holding this
	// configuration's files when the tool keeps several side by side, as
	// bazel does with bazel-out/k8-opt and bazel-out/k8-dbg.
	ConfigDir string
}

// Factory configures a backend for cfg. Commands go through r.
type Factory func(cfg *env.Config, r buildsys.Runner) (*Backend, error)

var factories = map[string]Factory{
	env.BackendCMake:     newCMake,
	env.BackendBazel:     newBazel,
	env.BackendAutotools: newAutotools,
}

// Register makes a backend available under name, replacing any previous
// registration.
func Register(name string, f Factory) {
	factories[name] = f
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend returns the backend selected by cfg.
func NewBackend(cfg *env.Config, r buildsys.Runner) (*Backend, error) {
	f, ok := factories[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("no backend registered for %q (have %s)", cfg.Backend, strings.Join(Backends(), ", "))
	}
	return f(cfg, r)
}

// versionFlags returns the compiler flags carrying the wrapped library
// version. A release without a suffix gets an empty quoted suffix.
func versionFlags(version string) string {
	major, minor, patch, suffix := env.VersionParts(version)
	if suffix == "" {
		suffix = "''"
	}
	return fmt.Sprintf("-DTF_MAJOR_VERSION=%s -DTF_MINOR_VERSION=%s -DTF_PATCH_VERSION=%s -DTF_VERSION_SUFFIX=%s",
		major, minor, patch, suffix)
}

var cmakeSystemNames = map[string]string{
	"linux":   "Linux",
	"android": "Android",
	"freebsd": "FreeBSD",
	"darwin":  "Darwin",
}

func newCMake(cfg *env.Config, r buildsys.Runner) (*Backend, error) {
	buildType := "Release"
	if cfg.Debug() {
		buildType = "Debug"
	}
	flags := versionFlags(cfg.Version)

	c := cmake.New(filepath.Join(cfg.SourceDir, "tensorflow", "lite"), buildDir(cfg, env.BackendCMake)).
		WithRunner(r).
		Generator(cfg.Tool.Generator).
		Toolchain(cfg.Tool.ToolchainFile).
		BuildType(buildType).
		Jobs(cfg.Tool.Jobs).
		Define("CMAKE_POLICY_VERSION_MINIMUM", "3.5").
		DefineBool("BUILD_SHARED_LIBS", cfg.Shared).
		DefineBool("CMAKE_FIND_PACKAGE_PREFER_CONFIG", true).
		Define("CMAKE_C_FLAGS", flags).
		Define("CMAKE_CXX_FLAGS", flags)

	if cfg.Features.GPU {
		c.DefineBool("TFLITE_ENABLE_GPU", true)
	}
	if cfg.Features.NoMicro {
		c.DefineBool("TFLITE_ENABLE_XNNPACK", false)
	}
	if triple := cfg.Tool.CrossTriple; triple != "" {
		c.Define("CMAKE_SYSTEM_NAME", cmakeSystemNames[cfg.GOOS]).
			Define("CMAKE_SYSTEM_PROCESSOR", env.TripleProcessor(triple)).
			Define("CMAKE_C_COMPILER", triple+"-gcc").
			Define("CMAKE_CXX_COMPILER", triple+"-g++")
	}
	for _, d := range cfg.Tool.Defines {
		c.PassThrough(d.Key, d.Value)
	}
	return &Backend{BuildSystem: c, Produces: "tensorflow-lite"}, nil
}

// Bazel targets of the wrapped workspace.
const (
	bazelLibTarget = "//tensorflow/lite:libtensorflowlite.so"
	bazelGPUTarget = "//tensorflow/lite/delegates/gpu:libtensorflowlite_gpu_delegate.so"
)

func newBazel(cfg *env.Config, r buildsys.Runner) (*Backend, error) {
	mode := "opt"
	if cfg.Debug() {
		mode = "dbg"
	}
	b := bazel.New(cfg.SourceDir, buildDir(cfg, env.BackendBazel)).
		WithRunner(r).
		Mode(mode).
		Jobs(cfg.Tool.Jobs).
		Target(bazelLibTarget)

	if cfg.Features.GPU {
		b.Target(bazelGPUTarget)
	}
	if cfg.Features.NoMicro {
		b.Define("tflite_with_xnnpack", "false")
	}
	if cfg.CrossCompiling() {
		b.Flag("--cpu=" + bazelCPU(cfg.GOOS, cfg.GOARCH))
	}
	for _, d := range cfg.Tool.Defines {
		b.Define(d.Key, d.Value)
	}
	return &Backend{BuildSystem: b, Produces: "tensorflowlite", ConfigDir: "-" + mode}, nil
}

// bazelCPU returns the --cpu value of the TensorFlow toolchains for a target.
func bazelCPU(goos, goarch string) string {
	switch goos + "/" + goarch {
	case "linux/arm64":
		return "aarch64"
	case "linux/arm":
		return "armhf"
	case "android/arm64":
		return "arm64-v8a"
	case "android/arm":
		return "armeabi-v7a"
	case "darwin/arm64":
		return "darwin_arm64"
	case "darwin/amd64":
		return "darwin_x86_64"
	}
	return "k8"
}

func newAutotools(cfg *env.Config, r buildsys.Runner) (*Backend, error) {
	dir := buildDir(cfg, env.BackendAutotools)
	a := autotools.New(cfg.SourceDir, dir).
		WithRunner(r).
		InstallDir(filepath.Join(dir, "install")).
		Host(cfg.Tool.CrossTriple).
		Jobs(cfg.Tool.Jobs)

	a.Var("--enable-shared", yesNo(cfg.Shared)).
		Var("--enable-static", yesNo(!cfg.Shared))
	if cfg.Debug() {
		a.Env("CFLAGS", "-g -O0")
		a.Env("CXXFLAGS", "-g -O0")
	}
	for _, d := range cfg.Tool.Defines {
		a.Var(d.Key, d.Value)
	}
	return &Backend{BuildSystem: a, Produces: cfg.Library}, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
