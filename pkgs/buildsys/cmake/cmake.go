// Package cmake drives CMake configure/build steps.
package cmake

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/goplus/tflbuild/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	runner    buildsys.Runner
	SourceDir string
	buildDir  string
	generator string
	buildType string
	toolchain string
	jobs      int
	Defines   map[string]defineValue
	raw       []string // pass-through definitions, forwarded verbatim
	env       map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper configuring sourceDir into buildDir.
func New(sourceDir, buildDir string) *CMake {
	return &CMake{
		SourceDir: sourceDir,
		buildDir:  buildDir,
		Defines:   map[string]defineValue{},
		env:       map[string]string{},
	}
}

// WithRunner sets the runner used for subprocesses.
func (c *CMake) WithRunner(r buildsys.Runner) *CMake {
	c.runner = r
	return c
}

func (c *CMake) Name() string { return "cmake" }

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Jobs sets the parallel build level; 0 leaves CMake's default.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// PassThrough forwards -D<key>=<value> verbatim after all typed definitions.
// Empty values are dropped.
func (c *CMake) PassThrough(key, value string) *CMake {
	if value != "" {
		c.raw = append(c.raw, "-D"+key+"="+value)
	}
	return c
}

// Env sets key=value for every command spawned later.
func (c *CMake) Env(key, value string) *CMake {
	c.env[key] = value
	return c
}

// Configured reports whether a previous configure left its cache and
// generated build files behind.
func (c *CMake) Configured() bool {
	if !buildsys.Exists(filepath.Join(c.buildDir, "CMakeCache.txt")) {
		return false
	}
	return buildsys.Exists(filepath.Join(c.buildDir, "Makefile")) ||
		buildsys.Exists(filepath.Join(c.buildDir, "build.ninja"))
}

func (c *CMake) Configure(args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return buildsys.Run(c.runner, "cmake", "configure", c.cmd(c.ConfigureArgs(args...)))
}

// ConfigureArgs returns the arguments Configure passes to cmake.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, c.raw...)
	return append(cmakeArgs, args...)
}

func (c *CMake) Build(args ...string) error {
	return buildsys.Run(c.runner, "cmake", "build", c.cmd(c.BuildArgs(args...)))
}

// BuildArgs returns the arguments Build passes to cmake.
func (c *CMake) BuildArgs(args ...string) []string {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.jobs > 0 {
		cmdArgs = append(cmdArgs, "-j", strconv.Itoa(c.jobs))
	}
	return append(cmdArgs, args...)
}

// OutputDir returns the build dir, where CMake leaves its artifacts.
func (c *CMake) OutputDir() string {
	return c.buildDir
}

func (c *CMake) cmd(args []string) *buildsys.Cmd {
	return &buildsys.Cmd{Dir: c.buildDir, Env: c.env, Name: "cmake", Args: args}
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}
