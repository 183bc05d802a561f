// Package parser runs the evaluator process against batches of recipe
// files and decodes its framed output stream into the recipe entity graph.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/srcforge/pkgparse/internal/models"
)

// Result is one entry of a batch result sequence, at the same index as the
// input path that produced it
type Result struct {
	Recipe *models.Recipe
	Err    error
}

// Stream markers. Data lines are key:value, split on the first colon only.
const (
	markerRecipe      = "PKGBUILD"
	markerArch        = "ARCH"
	markerPackage     = "PACKAGE"
	markerPackageArch = "PACKAGEARCH"
	markerEnd         = "END"
)

type decodeState int

const (
	awaitRecipe decodeState = iota
	inRecipe
	inArch
	inPackage
	inPackageArch
)

// Decoder is the single-pass state machine over the evaluator's output
// stream. One instance decodes one batch; it is not safe for concurrent
// use and is driven by whichever task owns the output drain.
type Decoder struct {
	state   decodeState
	results []Result

	recipe  *models.Recipe
	badMsg  string // per-recipe evaluator rejection, empty when none
	archCur models.CategorySet
	arch    string
	pkg     *models.Package
}

// NewDecoder returns a decoder ready for a fresh stream
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Results returns the records finalized so far, in stream order
func (d *Decoder) Results() []Result {
	return d.results
}

// Open reports whether a record is still being accumulated, i.e. the
// stream ended mid-recipe
func (d *Decoder) Open() bool {
	return d.state != awaitRecipe
}

// Line consumes one stream line. A marker observed out of its expected
// order desynchronizes decoder and evaluator and returns a fatal
// ProtocolError; no later line may be fed afterwards.
func (d *Decoder) Line(line string) error {
	if line == "" {
		return nil
	}
	switch line {
	case markerRecipe:
		if d.state != awaitRecipe {
			return &models.ProtocolError{Line: line, Reason: "recipe marker inside an open record"}
		}
		d.recipe = &models.Recipe{}
		d.badMsg = ""
		d.state = inRecipe
		return nil
	case markerArch:
		if d.state != inRecipe {
			return &models.ProtocolError{Line: line, Reason: "architecture section outside a recipe header"}
		}
		d.arch = ""
		d.archCur = models.CategorySet{}
		d.state = inArch
		return nil
	case markerPackage:
		if d.state != inRecipe {
			return &models.ProtocolError{Line: line, Reason: "package section outside a recipe header"}
		}
		d.pkg = &models.Package{}
		d.state = inPackage
		return nil
	case markerPackageArch:
		if d.state != inPackage {
			return &models.ProtocolError{Line: line, Reason: "package architecture section outside a package"}
		}
		d.arch = ""
		d.archCur = models.CategorySet{}
		d.state = inPackageArch
		return nil
	case markerEnd:
		return d.closeSection()
	}

	key, value, found := strings.Cut(line, ":")
	if !found {
		return &models.ProtocolError{Line: line, Reason: "neither marker nor key:value data line"}
	}
	switch d.state {
	case awaitRecipe:
		return &models.ProtocolError{Line: line, Reason: "data line outside any record"}
	case inRecipe:
		d.recipeLine(key, value)
	case inArch, inPackageArch:
		d.archLine(key, value)
	case inPackage:
		d.packageLine(key, value)
	}
	return nil
}

func (d *Decoder) closeSection() error {
	switch d.state {
	case inArch:
		if d.arch == "" {
			return &models.ProtocolError{Line: markerEnd, Reason: "architecture section without a name"}
		}
		if d.recipe.ArchCategories == nil {
			d.recipe.ArchCategories = make(map[string]models.CategorySet)
		}
		d.recipe.ArchCategories[d.arch] = d.archCur
		d.state = inRecipe
	case inPackageArch:
		if d.arch == "" {
			return &models.ProtocolError{Line: markerEnd, Reason: "package architecture section without a name"}
		}
		if d.pkg.ArchRelations == nil {
			d.pkg.ArchRelations = make(map[string]models.CategorySet)
		}
		d.pkg.ArchRelations[d.arch] = d.archCur
		d.state = inPackage
	case inPackage:
		d.closePackage()
		d.state = inRecipe
	case inRecipe:
		d.results = append(d.results, d.finalize())
		d.recipe = nil
		d.state = awaitRecipe
	default:
		return &models.ProtocolError{Line: markerEnd, Reason: "end marker with no open section"}
	}
	return nil
}

// closePackage merges the accumulated package section into the recipe. The
// name keys of the recipe header already created placeholder packages, so
// a section for a known name fills that slot in place.
func (d *Decoder) closePackage() {
	pkg := d.pkg
	d.pkg = nil
	if pkg.Name == "" {
		d.reject("package section without a name")
		return
	}
	existing := d.recipe.Package(pkg.Name)
	if existing == nil {
		d.recipe.Packages = append(d.recipe.Packages, *pkg)
		return
	}
	if !existing.Relations.IsZero() || existing.ArchRelations != nil {
		d.reject(fmt.Sprintf("duplicate package section for %q", pkg.Name))
		return
	}
	*existing = *pkg
}

// reject marks the current recipe as failed by evaluator-side validation
func (d *Decoder) reject(msg string) {
	if d.badMsg == "" {
		d.badMsg = msg
	}
}

func (d *Decoder) finalize() Result {
	if d.badMsg != "" {
		return Result{Err: &models.ParseError{Message: d.badMsg}}
	}
	r := d.recipe
	if err := checkArch(r.Arch); err != nil {
		return Result{Err: err}
	}
	for i := range r.Packages {
		if r.Packages[i].Arch == nil {
			continue
		}
		if err := checkArch(r.Packages[i].Arch); err != nil {
			return Result{Err: err}
		}
	}
	// A sole package names the base when the recipe declared none
	if r.Base == "" && len(r.Packages) == 1 {
		r.Base = r.Packages[0].Name
	}
	return Result{Recipe: r}
}

// checkArch enforces the mutual exclusion of the "any" sentinel with
// concrete architecture identifiers
func checkArch(arch []string) error {
	if len(arch) <= 1 {
		return nil
	}
	for _, a := range arch {
		if a == models.ArchAny {
			return &models.ParseError{Message: "architecture 'any' cannot be mixed with others"}
		}
	}
	return nil
}

// recipeLine handles a data line in the recipe header. Unknown keys are
// ignored for forward compatibility.
func (d *Decoder) recipeLine(key, value string) {
	r := d.recipe
	switch key {
	case "base":
		r.Base = value
	case "name":
		if r.Package(value) != nil {
			d.reject(fmt.Sprintf("duplicate package name %q", value))
			return
		}
		r.Packages = append(r.Packages, models.Package{Name: value})
	case "ver":
		r.Version.Version = value
	case "rel":
		r.Version.Release = value
	case "epoch":
		if value == "" {
			return
		}
		epoch, err := strconv.Atoi(value)
		if err != nil || epoch < 0 {
			d.reject(fmt.Sprintf("invalid epoch %q", value))
			return
		}
		r.Version.Epoch = epoch
	case "desc":
		r.Description = value
	case "url":
		r.URL = value
	case "install":
		r.Install = value
	case "changelog":
		r.Changelog = value
	case "arch":
		r.Arch = append(r.Arch, value)
	case "license":
		r.License = append(r.License, value)
	case "group":
		r.Groups = append(r.Groups, value)
	case "backup":
		r.Backup = append(r.Backup, value)
	case "option":
		r.Options = append(r.Options, value)
	case "validpgpkey":
		r.ValidPGPKeys = append(r.ValidPGPKeys, value)
	case "noextract":
		r.NoExtract = append(r.NoExtract, value)
	case "pkgver_func":
		switch value {
		case "y":
			r.HasPkgverFunc = true
		case "n":
			r.HasPkgverFunc = false
		default:
			d.reject(fmt.Sprintf("invalid pkgver_func value %q", value))
		}
	case "error":
		d.reject(value)
	default:
		addCategory(&r.Categories, key, value, false)
	}
}

// archLine handles a data line in an ARCH or PACKAGEARCH section; the
// first arch key names the section
func (d *Decoder) archLine(key, value string) {
	if key == "arch" {
		if d.arch == "" {
			d.arch = value
		}
		return
	}
	addCategory(&d.archCur, key, value, d.state == inPackageArch)
}

// packageLine handles a data line in a PACKAGE section. Scalar and list
// overrides record presence explicitly via set markers, so a declared
// empty value stays distinct from an absent one.
func (d *Decoder) packageLine(key, value string) {
	p := d.pkg
	switch key {
	case "name":
		if p.Name == "" {
			p.Name = value
		}
	case "set":
		d.markSet(value)
	case "desc":
		p.Description = &value
	case "url":
		p.URL = &value
	case "install":
		p.Install = &value
	case "changelog":
		p.Changelog = &value
	case "arch":
		p.Arch = append(p.Arch, value)
	case "license":
		p.License = append(p.License, value)
	case "group":
		p.Groups = append(p.Groups, value)
	case "backup":
		p.Backup = append(p.Backup, value)
	case "option":
		p.Options = append(p.Options, value)
	default:
		addCategory(&p.Relations, key, value, true)
	}
}

// markSet records that a package override was declared, possibly empty
func (d *Decoder) markSet(field string) {
	p := d.pkg
	empty := ""
	switch field {
	case "desc":
		if p.Description == nil {
			p.Description = &empty
		}
	case "url":
		if p.URL == nil {
			p.URL = &empty
		}
	case "install":
		if p.Install == nil {
			p.Install = &empty
		}
	case "changelog":
		if p.Changelog == nil {
			p.Changelog = &empty
		}
	case "license":
		if p.License == nil {
			p.License = []string{}
		}
	case "group":
		if p.Groups == nil {
			p.Groups = []string{}
		}
	case "backup":
		if p.Backup == nil {
			p.Backup = []string{}
		}
	case "option":
		if p.Options == nil {
			p.Options = []string{}
		}
	case "arch":
		if p.Arch == nil {
			p.Arch = []string{}
		}
	}
}

// addCategory routes a category key into a set. Package-scoped sets only
// carry dependency-like categories; anything else is ignored there, like
// any other unrecognized key.
func addCategory(set *models.CategorySet, key, value string, pkgScope bool) {
	switch key {
	case "dep":
		set.Depends = append(set.Depends, value)
	case "checkdep":
		set.CheckDepends = append(set.CheckDepends, value)
	case "optdep":
		set.OptDepends = append(set.OptDepends, value)
	case "provide":
		set.Provides = append(set.Provides, value)
	case "conflict":
		set.Conflicts = append(set.Conflicts, value)
	case "replace":
		set.Replaces = append(set.Replaces, value)
	case "makedep":
		if !pkgScope {
			set.MakeDepends = append(set.MakeDepends, value)
		}
	case "source":
		if !pkgScope {
			set.Sources = append(set.Sources, value)
		}
	case "ck", "md5", "sha1", "sha224", "sha256", "sha384", "sha512", "b2":
		if !pkgScope {
			if set.Checksums == nil {
				set.Checksums = make(map[string][]string)
			}
			set.Checksums[key] = append(set.Checksums[key], value)
		}
	}
}
