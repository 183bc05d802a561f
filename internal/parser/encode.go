package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/srcforge/pkgparse/internal/models"
)

// EncodeRecipe renders a recipe back into the evaluator's line protocol,
// in the same order the evaluation script emits it. Feeding the output
// through a Decoder reproduces the recipe, with the usual caveat that
// empty lists collapse to absent ones.
func EncodeRecipe(r *models.Recipe) []byte {
	var b strings.Builder
	b.WriteString(markerRecipe + "\n")
	writeKV(&b, "base", r.Base)
	for i := range r.Packages {
		writeKV(&b, "name", r.Packages[i].Name)
	}
	writeKV(&b, "ver", r.Version.Version)
	writeKV(&b, "rel", r.Version.Release)
	writeKV(&b, "epoch", strconv.Itoa(r.Version.Epoch))
	writeKV(&b, "desc", r.Description)
	writeKV(&b, "url", r.URL)
	writeKV(&b, "install", r.Install)
	writeKV(&b, "changelog", r.Changelog)
	writeList(&b, "license", r.License)
	writeList(&b, "group", r.Groups)
	writeList(&b, "backup", r.Backup)
	writeList(&b, "option", r.Options)
	writeList(&b, "validpgpkey", r.ValidPGPKeys)
	writeList(&b, "noextract", r.NoExtract)
	if r.HasPkgverFunc {
		writeKV(&b, "pkgver_func", "y")
	} else {
		writeKV(&b, "pkgver_func", "n")
	}
	writeList(&b, "arch", r.Arch)
	writeCategories(&b, r.Categories, false)
	for _, arch := range sortedArches(r.ArchCategories) {
		b.WriteString(markerArch + "\n")
		writeKV(&b, "arch", arch)
		writeCategories(&b, r.ArchCategories[arch], false)
		b.WriteString(markerEnd + "\n")
	}
	for i := range r.Packages {
		encodePackage(&b, &r.Packages[i])
	}
	b.WriteString(markerEnd + "\n")
	return []byte(b.String())
}

func encodePackage(b *strings.Builder, p *models.Package) {
	b.WriteString(markerPackage + "\n")
	writeKV(b, "name", p.Name)
	writeOverride(b, "desc", p.Description)
	writeOverride(b, "url", p.URL)
	writeOverride(b, "install", p.Install)
	writeOverride(b, "changelog", p.Changelog)
	writeListOverride(b, "license", p.License)
	writeListOverride(b, "group", p.Groups)
	writeListOverride(b, "backup", p.Backup)
	writeListOverride(b, "option", p.Options)
	writeListOverride(b, "arch", p.Arch)
	writeCategories(b, p.Relations, true)
	for _, arch := range sortedArches(p.ArchRelations) {
		b.WriteString(markerPackageArch + "\n")
		writeKV(b, "arch", arch)
		writeCategories(b, p.ArchRelations[arch], true)
		b.WriteString(markerEnd + "\n")
	}
	b.WriteString(markerEnd + "\n")
}

func writeCategories(b *strings.Builder, set models.CategorySet, pkgScope bool) {
	writeList(b, "dep", set.Depends)
	if !pkgScope {
		writeList(b, "makedep", set.MakeDepends)
	}
	writeList(b, "checkdep", set.CheckDepends)
	writeList(b, "optdep", set.OptDepends)
	writeList(b, "provide", set.Provides)
	writeList(b, "conflict", set.Conflicts)
	writeList(b, "replace", set.Replaces)
	if pkgScope {
		return
	}
	writeList(b, "source", set.Sources)
	for _, algo := range []string{"ck", "md5", "sha1", "sha224", "sha256", "sha384", "sha512", "b2"} {
		writeList(b, algo, set.Checksums[algo])
	}
}

func writeKV(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s:%s\n", key, value)
}

func writeList(b *strings.Builder, key string, values []string) {
	for _, v := range values {
		writeKV(b, key, v)
	}
}

func writeOverride(b *strings.Builder, key string, value *string) {
	if value == nil {
		return
	}
	writeKV(b, "set", key)
	writeKV(b, key, *value)
}

func writeListOverride(b *strings.Builder, key string, values []string) {
	if values == nil {
		return
	}
	writeKV(b, "set", key)
	writeList(b, key, values)
}

func sortedArches(m map[string]models.CategorySet) []string {
	if len(m) == 0 {
		return nil
	}
	arches := make([]string, 0, len(m))
	for arch := range m {
		arches = append(arches, arch)
	}
	sort.Strings(arches)
	return arches
}
