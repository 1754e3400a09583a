// Package bazel drives Bazel builds of a workspace.
package bazel

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/goplus/tflbuild/pkgs/buildsys"
)

// configureEnv answers the workspace configure script's prompts.
var configureEnv = map[string]string{
	"PYTHON_BIN_PATH":             "python3",
	"USE_DEFAULT_PYTHON_LIB_PATH": "1",
	"TF_ENABLE_XLA":               "0",
	"TF_NEED_OPENCL_SYCL":         "0",
	"TF_NEED_ROCM":                "0",
	"TF_NEED_CUDA":                "0",
	"TF_NEED_CLANG":               "0",
	"TF_DOWNLOAD_CLANG":           "0",
	"TF_SET_ANDROID_WORKSPACE":    "0",
	"CC_OPT_FLAGS":                "-Wno-sign-compare",
}

// Bazel drives a Bazel workspace whose output tree lives under an explicit
// output user root.
type Bazel struct {
	runner     buildsys.Runner
	workspace  string
	outputRoot string
	mode       string
	jobs       int
	targets    []string
	flags      []string
	defines    []string
	env        map[string]string
}

var _ buildsys.BuildSystem = (*Bazel)(nil)

// New returns a Bazel helper building in workspace with its output tree
// under outputRoot.
func New(workspace, outputRoot string) *Bazel {
	return &Bazel{
		workspace:  workspace,
		outputRoot: outputRoot,
		mode:       "opt",
		env:        map[string]string{},
	}
}

// WithRunner sets the runner used for subprocesses.
func (b *Bazel) WithRunner(r buildsys.Runner) *Bazel {
	b.runner = r
	return b
}

func (b *Bazel) Name() string { return "bazel" }

// Mode sets the compilation mode: "opt", "dbg" or "fastbuild".
func (b *Bazel) Mode(mode string) *Bazel {
	b.mode = mode
	return b
}

// Jobs sets --jobs; 0 leaves Bazel's default.
func (b *Bazel) Jobs(n int) *Bazel {
	b.jobs = n
	return b
}

// Target adds a build target label.
func (b *Bazel) Target(label string) *Bazel {
	b.targets = append(b.targets, label)
	return b
}

// Flag adds a raw build flag.
func (b *Bazel) Flag(flag string) *Bazel {
	b.flags = append(b.flags, flag)
	return b
}

// Define forwards --define=<key>=<value>. Empty values are dropped.
func (b *Bazel) Define(key, value string) *Bazel {
	if value != "" {
		b.defines = append(b.defines, "--define="+key+"="+value)
	}
	return b
}

// Env sets key=value for every command spawned later.
func (b *Bazel) Env(key, value string) *Bazel {
	b.env[key] = value
	return b
}

// Configured reports whether the workspace configure script has already
// written its bazelrc.
func (b *Bazel) Configured() bool {
	return buildsys.Exists(filepath.Join(b.workspace, ".tf_configure.bazelrc"))
}

// Configure runs the workspace configure script non-interactively.
func (b *Bazel) Configure(args ...string) error {
	env := make(map[string]string, len(configureEnv)+len(b.env))
	for k, v := range configureEnv {
		env[k] = v
	}
	for k, v := range b.env {
		env[k] = v
	}
	return buildsys.Run(b.runner, "bazel", "configure", &buildsys.Cmd{
		Dir:  b.workspace,
		Env:  env,
		Name: filepath.Join(b.workspace, "configure"),
		Args: args,
	})
}

func (b *Bazel) Build(args ...string) error {
	if err := os.MkdirAll(b.outputRoot, 0o755); err != nil {
		return err
	}
	return buildsys.Run(b.runner, "bazel", "build", &buildsys.Cmd{
		Dir:  b.workspace,
		Env:  b.env,
		Name: "bazel",
		Args: b.BuildArgs(args...),
	})
}

// BuildArgs returns the arguments Build passes to bazel.
func (b *Bazel) BuildArgs(args ...string) []string {
	cmdArgs := []string{"--output_user_root=" + b.outputRoot, "build", "-c", b.mode}
	if b.jobs > 0 {
		cmdArgs = append(cmdArgs, "--jobs", strconv.Itoa(b.jobs))
	}
	cmdArgs = append(cmdArgs, b.flags...)
	cmdArgs = append(cmdArgs, b.defines...)
	cmdArgs = append(cmdArgs, args...)
	return append(cmdArgs, b.targets...)
}

// OutputDir returns the output user root.
func (b *Bazel) OutputDir() string {
	return b.outputRoot
}
