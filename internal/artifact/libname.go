package artifact

import "strings"

// Kind classifies a library file.
type Kind int

const (
	NotLibrary Kind = iota
	Shared
	Static
)

func (k Kind) String() string {
	switch k {
	case Shared:
		return "dylib"
	case Static:
		return "static"
	}
	return "none"
}

// ParseLibName recovers the logical library name from a file name.
//
// Accepted shapes, with <v> one or more dot separated numbers:
//
//	lib<name>.a
//	lib<name>.so            lib<name>.so.<v>            (every target but darwin)
//	lib<name>.dylib         lib<name>.<v>.dylib         (darwin)
//
// Anything else, including an empty <name>, reports NotLibrary.
func ParseLibName(file, goos string) (name string, kind Kind) {
	rest, ok := strings.CutPrefix(file, "lib")
	if !ok {
		return "", NotLibrary
	}
	switch {
	case strings.HasSuffix(rest, ".a"):
		name, kind = strings.TrimSuffix(rest, ".a"), Static
	case goos == "darwin":
		base, ok := strings.CutSuffix(rest, ".dylib")
		if !ok {
			return "", NotLibrary
		}
		name, kind = trimVersion(base), Shared
	default:
		i := strings.LastIndex(rest, ".so")
		for i >= 0 && !isVersion(rest[i+len(".so"):]) {
			i = strings.LastIndex(rest[:i], ".so")
		}
		if i < 0 {
			return "", NotLibrary
		}
		name, kind = rest[:i], Shared
	}
	if name == "" {
		return "", NotLibrary
	}
	return name, kind
}

// isVersion reports whether s is empty or ".<v>".
func isVersion(s string) bool {
	if s == "" {
		return true
	}
	if s[0] != '.' {
		return false
	}
	for _, part := range strings.Split(s[1:], ".") {
		if !isNumber(part) {
			return false
		}
	}
	return true
}

// trimVersion strips trailing ".<number>" components.
func trimVersion(s string) string {
	for {
		i := strings.LastIndexByte(s, '.')
		if i < 0 || !isNumber(s[i+1:]) {
			return s
		}
		s = s[:i]
	}
}

func isNumber(s string) bool {
	run, rest := cutRun(s, true)
	return run != "" && rest == ""
}

// IsLibrary reports whether file is a library file on goos.
func IsLibrary(file, goos string) bool {
	_, kind := ParseLibName(file, goos)
	return kind != NotLibrary
}
