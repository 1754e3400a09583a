package link

import (
	"io"
	"strings"
	"text/template"

	"github.com/goplus/tflbuild/internal/artifact"
)

var cgoTmpl = template.Must(template.New("cgo").Parse(`// Code generated by tflbuild. DO NOT EDIT.

//go:build {{.GOOS}} && {{.GOARCH}}

package {{.Package}}

{{range .LDFLAGS}}// #cgo LDFLAGS: {{.}}
{{end}}import "C"
`))

// LDFLAGS returns the linker flags equivalent to the plan's search and link
// directives on goos. Shared links also get an rpath for every search dir.
func (p *Plan) LDFLAGS(goos string) []string {
	var dirs, libs []string
	shared := false
	for _, d := range p.Directives {
		switch d.Op {
		case Search:
			dirs = append(dirs, d.Value)
		case Lib:
			if d.Kind == artifact.Static && goos != "darwin" {
				libs = append(libs, "-l:lib"+d.Value+".a")
				continue
			}
			if d.Kind == artifact.Shared {
				shared = true
			}
			libs = append(libs, "-l"+d.Value)
		}
	}

	var flags []string
	for _, dir := range dirs {
		flags = append(flags, "-L"+quote(dir))
		if shared {
			flags = append(flags, "-Wl,-rpath,"+quote(dir))
		}
	}
	return append(flags, libs...)
}

// WriteCgo writes a Go source file for package pkg that carries the plan as
// #cgo LDFLAGS, constrained to goos/goarch.
func (p *Plan) WriteCgo(w io.Writer, pkg, goos, goarch string) error {
	return cgoTmpl.Execute(w, struct {
		GOOS, GOARCH, Package string
		LDFLAGS               []string
	}{goos, goarch, pkg, p.LDFLAGS(goos)})
}

var cgoEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote protects s from #cgo argument splitting.
func quote(s string) string {
	if !strings.ContainsAny(s, " \t'\"\\") {
		return s
	}
	return "'" + cgoEscaper.Replace(s) + "'"
}
