// Package buildsystest provides a recording buildsys.Runner for tests.
package buildsystest

import (
	"errors"
	"slices"
	"strings"

	"github.com/goplus/tflbuild/pkgs/buildsys"
)

// ErrFailed is returned for commands matched by Recorder.Fail.
var ErrFailed = errors.New("exit status 1")

// Recorder records every command instead of running it.
type Recorder struct {
	Cmds []*buildsys.Cmd

	// OnRun, if set, is called for each command; use it to fabricate the
	// files a real tool would leave behind.
	OnRun func(cmd *buildsys.Cmd) error

	// Fail makes every command whose arguments contain this string fail.
	Fail string
}

func (r *Recorder) Run(cmd *buildsys.Cmd) error {
	cp := *cmd
	cp.Args = slices.Clone(cmd.Args)
	r.Cmds = append(r.Cmds, &cp)
	if r.Fail != "" && strings.Contains(cmd.String(), r.Fail) {
		return ErrFailed
	}
	if r.OnRun != nil {
		return r.OnRun(cmd)
	}
	return nil
}

// Lines returns the recorded commands as strings.
func (r *Recorder) Lines() []string {
	out := make([]string, len(r.Cmds))
	for i, c := range r.Cmds {
		out[i] = c.String()
	}
	return out
}

// Count returns how many recorded commands contain sub.
func (r *Recorder) Count(sub string) int {
	n := 0
	for _, c := range r.Cmds {
		if strings.Contains(c.String(), sub) {
			n++
		}
	}
	return n
}
