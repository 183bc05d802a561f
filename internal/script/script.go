// Package script assembles the bash program handed to the evaluator
// process. Assembly is a pure function of the configuration: equal configs
// produce byte-identical scripts.
package script

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/srcforge/pkgparse/internal/models"
)

// checksumAlgos is the fixed vocabulary of checksum categories, in emission
// order: protocol key -> recipe array name
var checksumAlgos = []struct {
	Key   string
	Array string
}{
	{"ck", "cksums"},
	{"md5", "md5sums"},
	{"sha1", "sha1sums"},
	{"sha224", "sha224sums"},
	{"sha256", "sha256sums"},
	{"sha384", "sha384sums"},
	{"sha512", "sha512sums"},
	{"b2", "b2sums"},
}

// ChecksumAlgos returns the names of all supported checksum algorithms
func ChecksumAlgos() []string {
	names := make([]string, 0, len(checksumAlgos))
	for _, algo := range checksumAlgos {
		names = append(names, algo.Key)
	}
	return names
}

// Config selects what the assembled script emits. The core categories
// (base, names, version triple, scalar metadata, architecture lists and the
// dependency/provides/conflicts/replaces arrays) are always emitted.
type Config struct {
	// Path to the makepkg support library, sourced by the script
	MakepkgLibrary string
	// Path to the makepkg configuration file
	MakepkgConfig string
	// Checksum categories to emit, a subset of ChecksumAlgos()
	Algos []string
	// Emit the source array
	Sources bool
	// Emit optdepends
	OptDepends bool
	// Emit checkdepends
	CheckDepends bool
	// Probe whether the recipe defines a pkgver() function
	PkgverFunc bool
}

// DefaultConfig returns a Config emitting everything, with the makepkg
// paths taken from the LIBRARY and MAKEPKG_CONF environment variables when
// set, falling back to the standard installation paths
func DefaultConfig() Config {
	return Config{
		MakepkgLibrary: envOr("LIBRARY", "/usr/share/makepkg"),
		MakepkgConfig:  envOr("MAKEPKG_CONF", "/etc/makepkg.conf"),
		Algos:          ChecksumAlgos(),
		Sources:        true,
		OptDepends:     true,
		CheckDepends:   true,
		PkgverFunc:     true,
	}
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (c Config) validate() error {
	if c.MakepkgLibrary == "" {
		return &models.ConfigError{Reason: "makepkg library path is empty"}
	}
	if c.MakepkgConfig == "" {
		return &models.ConfigError{Reason: "makepkg config path is empty"}
	}
	known := make(map[string]bool, len(checksumAlgos))
	for _, algo := range checksumAlgos {
		known[algo.Key] = true
	}
	seen := make(map[string]bool, len(c.Algos))
	for _, algo := range c.Algos {
		if !known[algo] {
			return &models.ConfigError{Reason: fmt.Sprintf("unknown checksum algorithm %q", algo)}
		}
		if seen[algo] {
			return &models.ConfigError{Reason: fmt.Sprintf("checksum algorithm %q requested twice", algo)}
		}
		seen[algo] = true
	}
	if !c.Sources && len(c.Algos) > 0 {
		return &models.ConfigError{Reason: "checksum categories requested without sources"}
	}
	return nil
}

// Generate assembles the evaluation script. It never touches the
// filesystem: the makepkg paths are resolved by the evaluator at run time.
func (c Config) Generate() ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	library, err := syntax.Quote(c.MakepkgLibrary, syntax.LangBash)
	if err != nil {
		return nil, &models.ConfigError{Reason: fmt.Sprintf("makepkg library path: %v", err)}
	}
	config, err := syntax.Quote(c.MakepkgConfig, syntax.LangBash)
	if err != nil {
		return nil, &models.ConfigError{Reason: fmt.Sprintf("makepkg config path: %v", err)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LIBRARY=%s\n", library)
	fmt.Fprintf(&b, "MAKEPKG_CONF=%s\n", config)
	b.WriteString(fragmentPrelude)
	c.writeDumpHelpers(&b)
	b.WriteString(fragmentLoopStart)
	if c.PkgverFunc {
		b.WriteString(fragmentPkgverFunc)
	}
	b.WriteString(fragmentArchSections)
	b.WriteString(fragmentPackageLoop)
	b.WriteString(fragmentLoopEnd)
	return []byte(b.String()), nil
}

// writeDumpHelpers emits the category-dump functions, enumerating exactly
// the categories the config requests. $1 is the per-arch array suffix,
// empty for the default set.
func (c Config) writeDumpHelpers(b *strings.Builder) {
	recipeCats := [][2]string{
		{"dep", "depends"},
		{"makedep", "makedepends"},
	}
	pkgCats := [][2]string{
		{"dep", "depends"},
	}
	if c.CheckDepends {
		recipeCats = append(recipeCats, [2]string{"checkdep", "checkdepends"})
		pkgCats = append(pkgCats, [2]string{"checkdep", "checkdepends"})
	}
	if c.OptDepends {
		recipeCats = append(recipeCats, [2]string{"optdep", "optdepends"})
		pkgCats = append(pkgCats, [2]string{"optdep", "optdepends"})
	}
	for _, cat := range [][2]string{
		{"provide", "provides"},
		{"conflict", "conflicts"},
		{"replace", "replaces"},
	} {
		recipeCats = append(recipeCats, cat)
		pkgCats = append(pkgCats, cat)
	}
	if c.Sources {
		recipeCats = append(recipeCats, [2]string{"source", "source"})
	}
	// Canonical emission order, independent of the order requested
	requested := make(map[string]bool, len(c.Algos))
	for _, algo := range c.Algos {
		requested[algo] = true
	}
	for _, algo := range checksumAlgos {
		if requested[algo.Key] {
			recipeCats = append(recipeCats, [2]string{algo.Key, algo.Array})
		}
	}

	writeDumpFunc(b, "_dump_cats", recipeCats)
	writeHasFunc(b, "_has_arch_vars", recipeCats)
	writeDumpFunc(b, "_dump_pkg_cats", pkgCats)
	writeHasFunc(b, "_has_pkg_arch_vars", pkgCats)
}

func writeDumpFunc(b *strings.Builder, name string, cats [][2]string) {
	fmt.Fprintf(b, "\n%s() {\n", name)
	for _, cat := range cats {
		fmt.Fprintf(b, "  _arr %s \"%s$1\"\n", cat[0], cat[1])
	}
	b.WriteString("}\n")
}

func writeHasFunc(b *strings.Builder, name string, cats [][2]string) {
	fmt.Fprintf(b, "\n%s() {\n  local _v\n  for _v in", name)
	for _, cat := range cats {
		fmt.Fprintf(b, " %s", cat[1])
	}
	b.WriteString("; do\n    declare -p \"${_v}_$1\" &>/dev/null && return 0\n  done\n  return 1\n}\n")
}
