package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Installer copies library files into the installed-artifacts directory.
type Installer struct {
	Dir  string
	GOOS string
	Log  *zap.Logger
}

// Report describes one install pass.
type Report struct {
	Copied    []string // destination paths written
	Unchanged []string // destination paths that already matched
	Sources   []string // source paths installed or already up to date
	Failed    []error  // per-file failures
}

func (r *Report) add(src, dst string, copied bool) {
	r.Sources = append(r.Sources, src)
	if copied {
		r.Copied = append(r.Copied, dst)
	} else {
		r.Unchanged = append(r.Unchanged, dst)
	}
}

func (in *Installer) log() *zap.Logger {
	if in.Log == nil {
		return zap.NewNop()
	}
	return in.Log
}

// Primary installs src under the canonical file name. A failure is fatal to
// the caller since there is nothing to link against without it.
func (in *Installer) Primary(src, name string) (dst string, err error) {
	dst = filepath.Join(in.Dir, name)
	copied, err := in.copy(src, dst)
	if err != nil {
		return "", fmt.Errorf("install %s: %w", name, err)
	}
	in.log().Info("installed primary library",
		zap.String("from", src), zap.String("to", dst), zap.Bool("copied", copied))
	return dst, nil
}

// Dependencies copies every library file found under root into the install
// dir. Paths in exclude, compared against both source and destination, are
// left alone. When two sources share a file name the shallowest one wins.
// Copy failures are logged and reported, never returned.
func (in *Installer) Dependencies(root string, exclude ...string) *Report {
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		skip[filepath.Clean(p)] = true
	}

	res := Walk(root, func(name string) bool {
		return IsLibrary(name, in.GOOS)
	})
	if res.Skipped > 0 {
		in.log().Debug("skipped unreadable directories", zap.String("root", root), zap.Int("count", res.Skipped))
	}
	sortPaths(res.Paths)

	rep := &Report{}
	written := make(map[string]string)
	for _, src := range res.Paths {
		dst := filepath.Join(in.Dir, filepath.Base(src))
		if skip[filepath.Clean(src)] || skip[dst] {
			continue
		}
		if prev, ok := written[dst]; ok {
			in.log().Debug("duplicate library name", zap.String("kept", prev), zap.String("ignored", src))
			continue
		}
		written[dst] = src
		in.install(rep, src, dst)
	}
	return rep
}

// Prebuilt installs the library files at the top level of a user supplied
// directory. The directory must exist; individual copy failures are
// reported, not returned.
func (in *Installer) Prebuilt(dir string) (*Report, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prebuilt library dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("prebuilt library dir %s is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read prebuilt library dir: %w", err)
	}

	rep := &Report{}
	for _, entry := range entries {
		if !IsLibrary(entry.Name(), in.GOOS) {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		if fi, err := os.Stat(src); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		in.install(rep, src, filepath.Join(in.Dir, entry.Name()))
	}
	return rep, nil
}

func (in *Installer) install(rep *Report, src, dst string) {
	copied, err := in.copy(src, dst)
	if err != nil {
		in.log().Warn("copy failed", zap.String("from", src), zap.String("to", dst), zap.Error(err))
		rep.Failed = append(rep.Failed, fmt.Errorf("copy %s: %w", src, err))
		return
	}
	if copied {
		in.log().Debug("copied", zap.String("from", src), zap.String("to", dst))
	}
	rep.add(src, dst, copied)
}

// copy copies src to dst unless dst already has the same content. It reports
// whether a copy happened. The file is written next to dst and renamed into
// place.
func (in *Installer) copy(src, dst string) (bool, error) {
	if sameContent(src, dst) {
		return false, nil
	}
	fi, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	in2, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in2.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tflbuild-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in2); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), fi.Mode().Perm()); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return false, err
	}
	return true, nil
}
