package artifact

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
)

// compareNames orders file names the way "ls -v" does, so that
// libfoo.so.2 sorts before libfoo.so.10. Digit runs compare by value,
// ignoring leading zeros. Other bytes compare with '~' first, then the end
// of the name, then letters, then everything else.
func compareNames(a, b string) int {
	for a != "" || b != "" {
		var ta, tb string
		ta, a = cutRun(a, false)
		tb, b = cutRun(b, false)
		if c := compareText(ta, tb); c != 0 {
			return c
		}
		ta, a = cutRun(a, true)
		tb, b = cutRun(b, true)
		if c := compareNumber(ta, tb); c != 0 {
			return c
		}
	}
	return 0
}

// cutRun splits off the leading run of digits or non-digits.
func cutRun(s string, digits bool) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func compareText(a, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		if c := cmp.Compare(rank(a, i), rank(b, i)); c != 0 {
			return c
		}
	}
	return 0
}

func rank(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	switch c := s[i]; {
	case c == '~':
		return -1
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return int(c)
	default:
		return int(c) + 256
	}
}

func compareNumber(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// sortPaths orders paths shallowest first, then by file name in version
// order, so the result does not depend on the order a tree was walked in.
func sortPaths(paths []string) {
	slices.SortStableFunc(paths, func(a, b string) int {
		if c := cmp.Compare(depth(a), depth(b)); c != 0 {
			return c
		}
		if c := compareNames(filepath.Base(a), filepath.Base(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}
