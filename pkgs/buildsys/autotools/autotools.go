// Package autotools drives the classic configure/make workflow.
package autotools

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/goplus/tflbuild/pkgs/buildsys"
)

// AutoTools drives Autotools-style out-of-tree builds.
type AutoTools struct {
	runner     buildsys.Runner
	SourceDir  string
	buildDir   string
	installDir string
	host       string
	jobs       int
	vars       []string // VAR=value configure arguments
	env        map[string]string
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New returns an AutoTools helper configuring sourceDir in buildDir.
func New(sourceDir, buildDir string) *AutoTools {
	return &AutoTools{
		SourceDir: sourceDir,
		buildDir:  buildDir,
		env:       map[string]string{},
	}
}

// WithRunner sets the runner used for subprocesses.
func (a *AutoTools) WithRunner(r buildsys.Runner) *AutoTools {
	a.runner = r
	return a
}

func (a *AutoTools) Name() string { return "autotools" }

// InstallDir sets --prefix.
func (a *AutoTools) InstallDir(dir string) *AutoTools {
	a.installDir = dir
	return a
}

// Host sets --host for cross builds.
func (a *AutoTools) Host(triple string) *AutoTools {
	a.host = triple
	return a
}

// Jobs sets make's -j; 0 leaves make's default.
func (a *AutoTools) Jobs(n int) *AutoTools {
	a.jobs = n
	return a
}

// Var forwards VAR=value to configure. Empty values are dropped.
func (a *AutoTools) Var(key, value string) *AutoTools {
	if value != "" {
		a.vars = append(a.vars, key+"="+value)
	}
	return a
}

// Env sets key=value for every command spawned later.
func (a *AutoTools) Env(key, value string) *AutoTools {
	a.env[key] = value
	return a
}

// Configured reports whether configure already produced config.status and
// a Makefile in the build dir.
func (a *AutoTools) Configured() bool {
	return buildsys.Exists(filepath.Join(a.buildDir, "config.status")) &&
		buildsys.Exists(filepath.Join(a.buildDir, "Makefile"))
}

// Configure runs <SourceDir>/configure inside the build dir.
// --prefix and --host are prepended; extra flags follow the variables.
func (a *AutoTools) Configure(args ...string) error {
	if err := os.MkdirAll(a.buildDir, 0o755); err != nil {
		return err
	}
	return buildsys.Run(a.runner, "autotools", "configure", a.cmd(filepath.Join(a.SourceDir, "configure"), a.ConfigureArgs(args...)))
}

// ConfigureArgs returns the arguments Configure passes to the configure
// script.
func (a *AutoTools) ConfigureArgs(args ...string) []string {
	flags := make([]string, 0, 2+len(a.vars)+len(args))
	if a.installDir != "" {
		flags = append(flags, "--prefix="+a.installDir)
	}
	if a.host != "" {
		flags = append(flags, "--host="+a.host)
	}
	flags = append(flags, a.vars...)
	return append(flags, args...)
}

// Build runs make with optional extra arguments.
func (a *AutoTools) Build(args ...string) error {
	return buildsys.Run(a.runner, "autotools", "build", a.cmd("make", a.BuildArgs(args...)))
}

// BuildArgs returns the arguments Build passes to make.
func (a *AutoTools) BuildArgs(args ...string) []string {
	var cmdArgs []string
	if a.jobs > 0 {
		cmdArgs = append(cmdArgs, "-j"+strconv.Itoa(a.jobs))
	}
	return append(cmdArgs, args...)
}

// OutputDir returns the build dir, where libtool leaves its artifacts.
func (a *AutoTools) OutputDir() string {
	return a.buildDir
}

func (a *AutoTools) cmd(name string, args []string) *buildsys.Cmd {
	return &buildsys.Cmd{Dir: a.buildDir, Env: a.env, Name: name, Args: args}
}
