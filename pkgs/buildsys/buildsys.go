package buildsys

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// BuildSystem captures the shared capabilities of build tool backends (CMake,
// Bazel, Autotools). Implementations add their own configuration setters.
type BuildSystem interface {
	// Name identifies the tool in diagnostics.
	Name() string

	// Configured reports whether the tool's cache markers are present, in
	// which case Configure can be skipped. Markers are only checked for
	// existence.
	Configured() bool

	// Lifecycle.
	Configure(args ...string) error
	Build(args ...string) error

	// Where the tool writes its output tree.
	OutputDir() string
}

// Cmd is a single subprocess invocation.
type Cmd struct {
	Dir  string
	Env  map[string]string // added to the inherited environment
	Name string
	Args []string
}

func (c *Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs a command to completion.
type Runner interface {
	Run(cmd *Cmd) error
}

// ExecRunner runs commands with os/exec. Tool output goes to Stdout and
// Stderr; nil writers mean os.Stderr so that the caller's stdout only carries
// what it prints itself.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r *ExecRunner) Run(c *Cmd) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stderr
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if len(c.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), c.Env)
	}
	return cmd.Run()
}

// DefaultRunner is used by backends created without an explicit runner.
var DefaultRunner Runner = &ExecRunner{}

// StepError reports a failed lifecycle step of a build tool.
type StepError struct {
	Tool string
	Step string
	Cmd  string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s failed (%s): %v", e.Tool, e.Step, e.Cmd, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run runs c with r and wraps a failure in a *StepError.
func Run(r Runner, tool, step string, c *Cmd) error {
	if r == nil {
		r = DefaultRunner
	}
	if err := r.Run(c); err != nil {
		return &StepError{Tool: tool, Step: step, Cmd: c.String(), Err: err}
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MergeEnv returns base with every key in override replaced or appended,
// sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
