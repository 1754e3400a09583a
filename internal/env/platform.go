package env

import "strings"

// sharedExt maps supported target operating systems to their shared library
// extension.
var sharedExt = map[string]string{
	"linux":   ".so",
	"android": ".so",
	"freebsd": ".so",
	"darwin":  ".dylib",
}

// SharedExt returns the shared library extension of goos.
func SharedExt(goos string) string {
	if ext, ok := sharedExt[goos]; ok {
		return ext
	}
	return ".so"
}

// StaticExt returns the static archive extension.
func StaticExt(string) string {
	return ".a"
}

var archAliases = map[string]string{
	"x86_64":  "amd64",
	"x86-64":  "amd64",
	"aarch64": "arm64",
	"i386":    "386",
	"i686":    "386",
	"x86":     "386",
	"armv7":   "arm",
}

// NormalizeArch maps common architecture spellings to Go's GOARCH names.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(arch)
	if a, ok := archAliases[arch]; ok {
		return a
	}
	return arch
}

var linuxTriples = map[string]string{
	"amd64":   "x86_64-linux-gnu",
	"arm64":   "aarch64-linux-gnu",
	"arm":     "arm-linux-gnueabihf",
	"386":     "i686-linux-gnu",
	"riscv64": "riscv64-linux-gnu",
}

// CrossTriple returns the GNU cross triple used for goos/goarch.
func CrossTriple(goos, goarch string) (string, bool) {
	if goos != "linux" {
		return "", false
	}
	t, ok := linuxTriples[goarch]
	return t, ok
}

// TripleProcessor returns the processor part of a GNU triple.
func TripleProcessor(triple string) string {
	proc, _, _ := strings.Cut(triple, "-")
	return proc
}
