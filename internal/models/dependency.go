package models

import (
	"fmt"
	"strings"
)

// CompareOp is the ordering operator attached to a versioned dependency
type CompareOp int

const (
	OpNone CompareOp = iota
	OpGreater
	OpGreaterOrEqual
	OpEqual
	OpLessOrEqual
	OpLess
)

// String returns the operator as written in a dependency string
func (op CompareOp) String() string {
	switch op {
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpEqual:
		return "="
	case OpLessOrEqual:
		return "<="
	case OpLess:
		return "<"
	default:
		return ""
	}
}

// Dependency is one entry of a dependency-like array, e.g. "glibc>=2.38".
// Op is OpNone for an unversioned dependency.
type Dependency struct {
	Name    string
	Op      CompareOp
	Version Version
}

// ParseDependency splits a dependency string into name, operator and version
func ParseDependency(s string) (Dependency, error) {
	// Two-character operators have to win over their one-character prefixes
	for _, c := range []struct {
		sep string
		op  CompareOp
	}{
		{">=", OpGreaterOrEqual},
		{"<=", OpLessOrEqual},
		{">", OpGreater},
		{"<", OpLess},
		{"=", OpEqual},
	} {
		name, rest, found := strings.Cut(s, c.sep)
		if !found {
			continue
		}
		version, err := ParseVersion(rest)
		if err != nil {
			return Dependency{}, fmt.Errorf("dependency %q: %w", s, err)
		}
		return Dependency{Name: name, Op: c.op, Version: version}, nil
	}
	return Dependency{Name: s}, nil
}

// String renders the dependency back into array-entry form
func (d Dependency) String() string {
	if d.Op == OpNone {
		return d.Name
	}
	return d.Name + d.Op.String() + d.Version.String()
}

// Provide is one entry of a provides array. Only exact versions are legal,
// so there is no operator; Version is nil for an unversioned provide.
type Provide struct {
	Name    string
	Version *Version
}

// ParseProvide splits a provides entry into name and optional version
func ParseProvide(s string) (Provide, error) {
	if strings.ContainsAny(s, "<>") {
		return Provide{}, fmt.Errorf("provide %q contains an ordering operator", s)
	}
	name, rest, found := strings.Cut(s, "=")
	if !found {
		return Provide{Name: s}, nil
	}
	version, err := ParseVersion(rest)
	if err != nil {
		return Provide{}, fmt.Errorf("provide %q: %w", s, err)
	}
	return Provide{Name: name, Version: &version}, nil
}

// String renders the provide back into array-entry form
func (p Provide) String() string {
	if p.Version == nil {
		return p.Name
	}
	return p.Name + "=" + p.Version.String()
}
