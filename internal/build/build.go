// Package build sequences the acquisition pipeline: cache check, build tool
// run, artifact discovery, installation and linkage emission.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goplus/tflbuild/internal/artifact"
	"github.com/goplus/tflbuild/internal/env"
	"github.com/goplus/tflbuild/internal/link"
	"github.com/goplus/tflbuild/internal/manifest"
	"github.com/goplus/tflbuild/internal/variant"
	"github.com/goplus/tflbuild/pkgs/buildsys"
)

// ErrNoArtifact is returned when a build finished but its output tree holds
// no library with the expected name.
var ErrNoArtifact = errors.New("built library not found")

// Builder runs the pipeline. The zero value uses buildsys.DefaultRunner and
// discards logs.
type Builder struct {
	Runner buildsys.Runner
	Log    *zap.Logger

	now func() time.Time
}

// NewBuilder returns a Builder running real commands and logging to log.
func NewBuilder(log *zap.Logger) *Builder {
	return &Builder{Runner: buildsys.DefaultRunner, Log: log}
}

// Outcome is the result of Prepare.
type Outcome struct {
	Source  manifest.Source
	Backend string // empty unless the build tool ran
	Primary string // logical link name of the primary library
	Library string // installed primary file; empty with a prebuilt override
	Report  *artifact.Report
	Plan    *link.Plan
}

func (b *Builder) log() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}

// Prepare makes the library described by cfg available in cfg.OutDir and
// returns the linkage plan for it.
//
// A prebuilt override short-circuits everything else. Otherwise an installed
// library with the expected variant name is reused as is, and only when it is
// missing is the build tool run. ctx is checked between stages; a running
// tool is never interrupted.
func (b *Builder) Prepare(ctx context.Context, cfg *env.Config) (*Outcome, error) {
	log := b.log().With(
		zap.String("target", cfg.GOOS+"/"+cfg.GOARCH),
		zap.String("variant", variant.Key(cfg)),
	)
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var (
		out      *Outcome
		triggers []string
		err      error
	)
	switch {
	case cfg.Prebuilt != "":
		out, triggers, err = b.prebuilt(cfg, log)
	default:
		if lib := cached(cfg); lib != "" {
			log.Info("using installed library", zap.String("path", lib))
			out = &Outcome{Source: manifest.SourceCache, Primary: variant.LibraryName(cfg), Library: lib}
			triggers = cachedTriggers(cfg, out)
			break
		}
		out, triggers, err = b.build(ctx, cfg, log)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, err := link.Emit(cfg.OutDir, cfg.Library, out.Primary, cfg.GOOS)
	if err != nil {
		return nil, err
	}
	for _, key := range cfg.Watch {
		plan.RerunIfEnvChanged(key)
	}
	for _, path := range triggers {
		plan.RerunIfChanged(path)
	}
	out.Plan = plan

	if err := b.writeManifest(cfg, out, triggers); err != nil {
		// informational only
		log.Warn("write manifest", zap.Error(err))
	}
	return out, nil
}

func (b *Builder) prebuilt(cfg *env.Config, log *zap.Logger) (*Outcome, []string, error) {
	log.Info("using prebuilt library dir", zap.String("var", cfg.PrebuiltVar), zap.String("dir", cfg.Prebuilt))

	in := &artifact.Installer{Dir: cfg.OutDir, GOOS: cfg.GOOS, Log: log}
	rep, err := in.Prebuilt(cfg.Prebuilt)
	if err != nil {
		return nil, nil, err
	}
	if len(rep.Failed) > 0 {
		log.Warn("some prebuilt files were not installed", zap.Int("failed", len(rep.Failed)))
	}

	found := slices.ContainsFunc(rep.Sources, func(src string) bool {
		name, _ := artifact.ParseLibName(filepath.Base(src), cfg.GOOS)
		return name == cfg.Library
	})
	if !found {
		log.Warn("prebuilt dir has no primary library", zap.String("library", "lib"+cfg.Library))
	}

	out := &Outcome{Source: manifest.SourcePrebuilt, Primary: cfg.Library, Report: rep}
	return out, append([]string{cfg.Prebuilt}, rep.Sources...), nil
}

func (b *Builder) build(ctx context.Context, cfg *env.Config, log *zap.Logger) (*Outcome, []string, error) {
	runner := b.Runner
	if runner == nil {
		runner = buildsys.DefaultRunner
	}
	be, err := NewBackend(cfg, runner)
	if err != nil {
		return nil, nil, err
	}
	log = log.With(zap.String("backend", be.Name()))

	if be.Configured() {
		log.Info("build tree already configured")
	} else {
		log.Info("configuring")
		if err := be.Configure(); err != nil {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	log.Info("building")
	start := time.Now()
	if err := be.Build(); err != nil {
		return nil, nil, err
	}
	log.Info("build finished", zap.Duration("elapsed", time.Since(start)))
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	loc := &artifact.Locator{GOOS: cfg.GOOS, Log: log}
	found := loc.Locate(be.OutputDir(), be.Produces)
	if len(found.Paths) == 0 {
		return nil, nil, fmt.Errorf("%w: lib%s under %s", ErrNoArtifact, be.Produces, be.OutputDir())
	}
	src, static := pickPrimary(found.Paths, cfg, be.ConfigDir)

	in := &artifact.Installer{Dir: cfg.OutDir, GOOS: cfg.GOOS, Log: log}
	dst, err := in.Primary(src, variant.ArtifactFile(cfg, static))
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	exclude := append(slices.Clone(found.Paths), dst)
	rep := in.Dependencies(filepath.Dir(src), exclude...)
	log.Info("installed dependencies",
		zap.Int("copied", len(rep.Copied)),
		zap.Int("unchanged", len(rep.Unchanged)),
		zap.Int("failed", len(rep.Failed)))

	out := &Outcome{
		Source:  manifest.SourceBuild,
		Backend: be.Name(),
		Primary: variant.LibraryName(cfg),
		Library: dst,
		Report:  rep,
	}
	return out, append([]string{src}, rep.Sources...), nil
}

// cachedTriggers returns the change triggers recorded by the run that
// installed out, or just the installed primary when the manifest was written
// for another variant.
func cachedTriggers(cfg *env.Config, out *Outcome) []string {
	m, err := manifest.Read(cfg.OutDir)
	if err == nil && m.Variant == variant.Key(cfg) && m.Primary == out.Primary {
		return m.Triggers
	}
	return []string{out.Library}
}

// pickPrimary chooses among the located candidates. Candidates inside the
// tool's directory for this configuration win over the rest, then those with
// the preferred linkage; ties go to the first in locate order.
func pickPrimary(paths []string, cfg *env.Config, configDir string) (string, bool) {
	want := artifact.Static
	if cfg.Shared {
		want = artifact.Shared
	}
	best, bestScore := "", -1
	for _, p := range paths {
		score := 0
		if configDir != "" && inConfigDir(p, configDir) {
			score += 2
		}
		if _, kind := artifact.ParseLibName(filepath.Base(p), cfg.GOOS); kind == want {
			score++
		}
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	_, kind := artifact.ParseLibName(filepath.Base(best), cfg.GOOS)
	return best, kind == artifact.Static
}

// inConfigDir reports whether a directory element of path ends in suffix.
func inConfigDir(path, suffix string) bool {
	for _, elem := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if strings.HasSuffix(elem, suffix) {
			return true
		}
	}
	return false
}

func (b *Builder) writeManifest(cfg *env.Config, out *Outcome, triggers []string) error {
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	m := &manifest.Manifest{
		Version:    cfg.Version,
		GOOS:       cfg.GOOS,
		GOARCH:     cfg.GOARCH,
		Variant:    variant.Key(cfg),
		Backend:    out.Backend,
		Source:     out.Source,
		Primary:    out.Primary,
		Directives: out.Plan.Lines(),
		Triggers:   triggers,
		Updated:    now().UTC(),
	}
	if err := m.Scan(cfg.OutDir, cfg.GOOS); err != nil {
		return err
	}
	return manifest.Write(cfg.OutDir, m)
}
