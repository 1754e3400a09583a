// Package link computes the linkage directives for an installed library
// directory and renders them for the caller's build.
package link

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/tflbuild/internal/artifact"
)

// Op is the kind of a Directive.
type Op int

const (
	Search Op = iota
	Lib
	RerunIfChanged
	RerunIfEnvChanged
)

// Directive is one line of linkage output.
type Directive struct {
	Op    Op
	Kind  artifact.Kind // Lib only
	Value string
}

func (d Directive) String() string {
	switch d.Op {
	case Search:
		return "link-search=" + d.Value
	case Lib:
		return "link-lib=" + d.Kind.String() + "=" + d.Value
	case RerunIfChanged:
		return "rerun-if-changed=" + d.Value
	case RerunIfEnvChanged:
		return "rerun-if-env-changed=" + d.Value
	}
	return fmt.Sprintf("unknown(%d)=%s", d.Op, d.Value)
}

// Plan is an ordered list of directives. Link directives are unique by
// library name; the first one added wins.
type Plan struct {
	Directives []Directive

	linked map[string]bool
}

// Search appends a library search path.
func (p *Plan) Search(dir string) {
	p.Directives = append(p.Directives, Directive{Op: Search, Value: dir})
}

// Link appends a link directive for name unless name is already linked, and
// reports whether it did.
func (p *Plan) Link(name string, kind artifact.Kind) bool {
	if p.linked == nil {
		p.linked = make(map[string]bool)
	}
	if p.linked[name] {
		return false
	}
	p.linked[name] = true
	p.Directives = append(p.Directives, Directive{Op: Lib, Kind: kind, Value: name})
	return true
}

// Linked reports whether name has a link directive.
func (p *Plan) Linked(name string) bool {
	return p.linked[name]
}

func (p *Plan) RerunIfChanged(path string) {
	p.Directives = append(p.Directives, Directive{Op: RerunIfChanged, Value: path})
}

func (p *Plan) RerunIfEnvChanged(key string) {
	p.Directives = append(p.Directives, Directive{Op: RerunIfEnvChanged, Value: key})
}

// Lines returns the directives in text form.
func (p *Plan) Lines() []string {
	lines := make([]string, len(p.Directives))
	for i, d := range p.Directives {
		lines[i] = d.String()
	}
	return lines
}

// WriteText writes one directive per line.
func (p *Plan) WriteText(w io.Writer) error {
	for _, d := range p.Directives {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

// isVariant reports whether name is library or one of its variants.
func isVariant(name, library string) bool {
	return library != "" && (name == library || strings.HasPrefix(name, library+"-"))
}

// RuntimeLibs returns the system libraries the wrapped library needs at run
// time on goos.
func RuntimeLibs(goos string) []string {
	if goos == "android" {
		// bionic has pthread built into libc
		return []string{"dl"}
	}
	return []string{"pthread", "dl"}
}

// Emit builds the plan for the libraries installed in dir. library is the
// base name of the wrapped library and primary the logical name of the
// variant to link, e.g. tensorflow-lite and tensorflow-lite-gpu.
//
// The primary is linked statically when lib<primary>.a exists in dir and
// dynamically otherwise. Every other shared library in dir is then linked
// once, in file name order, followed by the runtime libraries. Other
// variants of library sharing dir are never linked.
func Emit(dir, library, primary, goos string) (*Plan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read install dir: %w", err)
	}

	p := &Plan{}
	p.Search(dir)

	kind := artifact.Shared
	if fi, err := os.Stat(filepath.Join(dir, "lib"+primary+".a")); err == nil && fi.Mode().IsRegular() {
		kind = artifact.Static
	}
	p.Link(primary, kind)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, kind := artifact.ParseLibName(entry.Name(), goos)
		if kind != artifact.Shared || isVariant(name, library) {
			continue
		}
		p.Link(name, kind)
	}
	for _, name := range RuntimeLibs(goos) {
		p.Link(name, artifact.Shared)
	}
	return p, nil
}
