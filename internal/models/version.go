package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the epoch/version/release triple carried by a recipe.
// A missing epoch is 0, a missing release is the empty string.
type Version struct {
	Epoch   int    `json:"epoch,omitempty"`
	Version string `json:"version"`
	Release string `json:"release,omitempty"`
}

// ParseVersion parses a full version string of the form [epoch:]version[-release]
func ParseVersion(s string) (Version, error) {
	var v Version

	// Epoch is everything before the first ':'
	if epoch, rest, found := strings.Cut(s, ":"); found {
		n, err := strconv.Atoi(epoch)
		if err != nil || n < 0 {
			return v, fmt.Errorf("invalid epoch %q in version %q", epoch, s)
		}
		v.Epoch = n
		s = rest
	}

	// Release is everything after the last '-'
	if idx := strings.LastIndex(s, "-"); idx >= 0 {
		v.Version = s[:idx]
		v.Release = s[idx+1:]
	} else {
		v.Version = s
	}

	return v, nil
}

// String renders the triple back into [epoch:]version[-release] form
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		b.WriteString(strconv.Itoa(v.Epoch))
		b.WriteByte(':')
	}
	b.WriteString(v.Version)
	if v.Release != "" {
		b.WriteByte('-')
		b.WriteString(v.Release)
	}
	return b.String()
}
