// Package manifest records what the last pipeline run installed.
//
// The manifest is informational. Cache decisions never read it.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goplus/tflbuild/internal/artifact"
)

// FileName is the manifest's name inside the output directory.
const FileName = "tflbuild.yaml"

// Source says where the primary library came from.
type Source string

const (
	SourceBuild    Source = "build"
	SourceCache    Source = "cache"
	SourcePrebuilt Source = "prebuilt"
)

// File is one installed file.
type File struct {
	Name   string `yaml:"name"`
	Digest string `yaml:"blake3"`
	Size   int64  `yaml:"size"`
}

// Manifest describes one pipeline run.
type Manifest struct {
	Version    string    `yaml:"version"`
	GOOS       string    `yaml:"goos"`
	GOARCH     string    `yaml:"goarch"`
	Variant    string    `yaml:"variant,omitempty"`
	Backend    string    `yaml:"backend,omitempty"`
	Source     Source    `yaml:"source"`
	Primary    string    `yaml:"primary"`
	Files      []File    `yaml:"files"`
	Directives []string  `yaml:"directives"`
	Triggers   []string  `yaml:"triggers,omitempty"` // source files installed by the run
	Updated    time.Time `yaml:"updated"`
}

// ErrNotFound is returned by Read when dir has no manifest.
var ErrNotFound = errors.New("manifest not found")

// Path returns the manifest path for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Scan fills m.Files with every library file at the top level of dir,
// sorted by name.
func (m *Manifest) Scan(dir, goos string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	m.Files = m.Files[:0]
	for _, entry := range entries {
		if entry.IsDir() || !artifact.IsLibrary(entry.Name(), goos) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		sum, err := artifact.Digest(path)
		if err != nil {
			return err
		}
		m.Files = append(m.Files, File{Name: entry.Name(), Digest: sum, Size: fi.Size()})
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Name < m.Files[j].Name })
	return nil
}

// Write stores m in dir, replacing any previous manifest.
func Write(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+FileName+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), Path(dir))
}

// Read loads the manifest stored in dir.
func Read(dir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Path(dir), err)
	}
	return &m, nil
}
