package models

// ArchAny is the architecture sentinel meaning architecture-independent.
// It is mutually exclusive with concrete architecture identifiers.
const ArchAny = "any"

// IsAnyArch reports whether an architecture list is the pure "any" list
func IsAnyArch(arch []string) bool {
	return len(arch) == 1 && arch[0] == ArchAny
}

// CategorySet groups the ordered value lists a recipe or package declares,
// keyed by category. Order is preserved and duplicates are kept. At package
// scope only the dependency-like categories are ever populated; Sources and
// Checksums stay empty there.
type CategorySet struct {
	Depends      []string `json:"depends,omitempty"`
	MakeDepends  []string `json:"makedepends,omitempty"`
	CheckDepends []string `json:"checkdepends,omitempty"`
	OptDepends   []string `json:"optdepends,omitempty"`
	Provides     []string `json:"provides,omitempty"`
	Conflicts    []string `json:"conflicts,omitempty"`
	Replaces     []string `json:"replaces,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	// Checksum values per algorithm (ck, md5, sha1, ..., b2), parallel to
	// Sources, "SKIP" entries included verbatim
	Checksums map[string][]string `json:"checksums,omitempty"`
}

// IsZero reports whether nothing in the set was declared
func (c *CategorySet) IsZero() bool {
	return len(c.Depends) == 0 && len(c.MakeDepends) == 0 &&
		len(c.CheckDepends) == 0 && len(c.OptDepends) == 0 &&
		len(c.Provides) == 0 && len(c.Conflicts) == 0 &&
		len(c.Replaces) == 0 && len(c.Sources) == 0 && len(c.Checksums) == 0
}

// Recipe is the evaluated state of one build-recipe file: the base package
// metadata plus the split packages it declares
type Recipe struct {
	// Base name; for a single-package recipe without an explicit base this
	// defaults to the sole package name
	Base    string  `json:"base"`
	Version Version `json:"version"`

	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Install     string `json:"install,omitempty"`
	Changelog   string `json:"changelog,omitempty"`

	// Either exactly ["any"] or a non-empty set of concrete architectures
	Arch []string `json:"arch,omitempty"`

	License      []string `json:"license,omitempty"`
	Groups       []string `json:"groups,omitempty"`
	Backup       []string `json:"backup,omitempty"`
	Options      []string `json:"options,omitempty"`
	ValidPGPKeys []string `json:"validpgpkeys,omitempty"`
	NoExtract    []string `json:"noextract,omitempty"`

	// Whether the recipe defines a dynamic-version probe function
	HasPkgverFunc bool `json:"pkgver_func"`

	// The default ("any") category set
	Categories CategorySet `json:"categories"`
	// Per-architecture category sets, keyed by concrete architecture
	ArchCategories map[string]CategorySet `json:"arch_categories,omitempty"`

	// Ordered, name-unique split packages
	Packages []Package `json:"packages"`
}

// Package looks up a split package by name, nil when absent
func (r *Recipe) Package(name string) *Package {
	for i := range r.Packages {
		if r.Packages[i].Name == name {
			return &r.Packages[i]
		}
	}
	return nil
}

// Package is one split package declared inside a recipe. Scalar and list
// override fields are nil when the package function does not declare them;
// a declared-but-empty value is non-nil. Dependency-like categories never
// inherit: an absent declaration is simply an empty set.
type Package struct {
	Name string `json:"name"`

	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Install     *string `json:"install,omitempty"`
	Changelog   *string `json:"changelog,omitempty"`

	License []string `json:"license,omitempty"`
	Groups  []string `json:"groups,omitempty"`
	Backup  []string `json:"backup,omitempty"`
	Options []string `json:"options,omitempty"`
	Arch    []string `json:"arch,omitempty"`

	Relations     CategorySet            `json:"relations"`
	ArchRelations map[string]CategorySet `json:"arch_relations,omitempty"`
}

// ResolvedPackage is a package with all inherited scalars flattened in from
// its owning recipe
type ResolvedPackage struct {
	Name        string
	Description string
	URL         string
	Install     string
	Changelog   string

	License []string
	Groups  []string
	Backup  []string
	Options []string
	Arch    []string

	Relations     CategorySet
	ArchRelations map[string]CategorySet
}

// Resolve applies the inheritance rules against the owning recipe: absent
// scalar and list overrides take the recipe's value, declared values win
// even when empty, and dependency categories are taken as-is
func (p *Package) Resolve(r *Recipe) ResolvedPackage {
	resolved := ResolvedPackage{
		Name:          p.Name,
		Description:   stringOr(p.Description, r.Description),
		URL:           stringOr(p.URL, r.URL),
		Install:       stringOr(p.Install, r.Install),
		Changelog:     stringOr(p.Changelog, r.Changelog),
		License:       listOr(p.License, r.License),
		Groups:        listOr(p.Groups, r.Groups),
		Backup:        listOr(p.Backup, r.Backup),
		Options:       listOr(p.Options, r.Options),
		Arch:          listOr(p.Arch, r.Arch),
		Relations:     p.Relations,
		ArchRelations: p.ArchRelations,
	}
	return resolved
}

func stringOr(override *string, inherited string) string {
	if override != nil {
		return *override
	}
	return inherited
}

func listOr(override, inherited []string) []string {
	if override != nil {
		return override
	}
	return inherited
}
