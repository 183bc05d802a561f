// Package vercmp implements the version ordering used by the pacman
// ecosystem: epochs compare as integers, then version and release strings
// compare with the classic alnum-run segment algorithm where digit runs beat
// letter runs and a tilde sorts below everything.
package vercmp

import (
	"github.com/srcforge/pkgparse/internal/models"
)

// Compare orders two version triples. Returns -1, 0 or 1 as a sorts lower
// than, equal to, or higher than b. Epochs dominate; a version tie falls
// through to the release strings unless either release is empty.
func Compare(a, b models.Version) int {
	if a.Epoch != b.Epoch {
		if a.Epoch < b.Epoch {
			return -1
		}
		return 1
	}
	if ret := CompareStrings(a.Version, b.Version); ret != 0 {
		return ret
	}
	if a.Release == "" || b.Release == "" {
		return 0
	}
	return CompareStrings(a.Release, b.Release)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isDigit(c) || isAlpha(c)
}

// CompareStrings orders two version segments with the alnum-run algorithm.
// The result must match the reference implementation exactly, upgrade
// decisions depend on it.
func CompareStrings(a, b string) int {
	if a == b {
		return 0
	}
	one, two := a, b

	for len(one) > 0 || len(two) > 0 {
		// Skip separator characters both sides at once
		for len(one) > 0 && !isAlnum(one[0]) && one[0] != '~' {
			one = one[1:]
		}
		for len(two) > 0 && !isAlnum(two[0]) && two[0] != '~' {
			two = two[1:]
		}

		// A tilde sorts below everything, even an ended string
		oneTilde := len(one) > 0 && one[0] == '~'
		twoTilde := len(two) > 0 && two[0] == '~'
		if oneTilde || twoTilde {
			if !oneTilde {
				return 1
			}
			if !twoTilde {
				return -1
			}
			one, two = one[1:], two[1:]
			continue
		}
		if len(one) == 0 || len(two) == 0 {
			break
		}

		// Extract the next maximal all-digit or all-letter run from each
		// side, following the type of the first side
		var seg1, seg2 string
		var isNum bool
		if isDigit(one[0]) {
			seg1, one = takeRun(one, isDigit)
			seg2, two = takeRun(two, isDigit)
			isNum = true
		} else {
			seg1, one = takeRun(one, isAlpha)
			seg2, two = takeRun(two, isAlpha)
		}

		// The runs are of different types: the digit side is newer
		if seg2 == "" {
			if isNum {
				return 1
			}
			return -1
		}

		if isNum {
			seg1 = trimLeadingZeros(seg1)
			seg2 = trimLeadingZeros(seg2)
			// The longer digit run is the larger number
			if len(seg1) != len(seg2) {
				if len(seg1) > len(seg2) {
					return 1
				}
				return -1
			}
		}
		if seg1 != seg2 {
			if seg1 > seg2 {
				return 1
			}
			return -1
		}
	}

	// All compared segments were equal; decide on the leftover, where a
	// remaining letter run never beats an ended string
	switch {
	case len(one) == 0 && len(two) == 0:
		return 0
	case len(one) > 0 && isAlpha(one[0]):
		return -1
	case len(one) == 0 && !isAlpha(two[0]):
		return -1
	default:
		return 1
	}
}

func takeRun(s string, class func(byte) bool) (run, rest string) {
	i := 0
	for i < len(s) && class(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s) && s[i] == '0' {
		i++
	}
	return s[i:]
}
