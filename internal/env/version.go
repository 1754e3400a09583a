package env

import (
	"strings"

	"golang.org/x/mod/semver"
)

// VersionParts splits a canonical semver such as "v2.20.0-rc1" into
// "2", "20", "0" and "-rc1".
func VersionParts(v string) (major, minor, patch, suffix string) {
	suffix = semver.Prerelease(v)
	core := strings.TrimPrefix(strings.TrimSuffix(semver.Canonical(v), suffix), "v")
	parts := strings.SplitN(core, ".", 3)
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return parts[0], parts[1], parts[2], suffix
}
