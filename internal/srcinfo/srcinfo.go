// Package srcinfo renders an evaluated recipe in the .SRCINFO metadata
// format: a pkgbase section with the shared values followed by one
// pkgname section per split package carrying only its overrides.
package srcinfo

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/srcforge/pkgparse/internal/models"
)

// Categories in their canonical .SRCINFO emission order, paired with the
// protocol keys of the checksum arrays
var categoryOrder = []struct {
	field string
	get   func(*models.CategorySet) []string
}{
	{"depends", func(c *models.CategorySet) []string { return c.Depends }},
	{"makedepends", func(c *models.CategorySet) []string { return c.MakeDepends }},
	{"checkdepends", func(c *models.CategorySet) []string { return c.CheckDepends }},
	{"optdepends", func(c *models.CategorySet) []string { return c.OptDepends }},
	{"provides", func(c *models.CategorySet) []string { return c.Provides }},
	{"conflicts", func(c *models.CategorySet) []string { return c.Conflicts }},
	{"replaces", func(c *models.CategorySet) []string { return c.Replaces }},
	{"source", func(c *models.CategorySet) []string { return c.Sources }},
}

var checksumOrder = []struct {
	key   string
	field string
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

// Render produces the .SRCINFO document for a recipe
func Render(recipe *models.Recipe) []byte {
	var buf bytes.Buffer

	writeField := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "\t%s = %s\n", name, value)
		}
	}
	writeList := func(name string, values []string) {
		for _, value := range values {
			writeField(name, value)
		}
	}
	writeCategories := func(set *models.CategorySet) {
		for _, cat := range categoryOrder {
			writeList(cat.field, cat.get(set))
		}
		for _, sum := range checksumOrder {
			writeList(sum.field, set.Checksums[sum.key])
		}
	}
	writeArchCategories := func(sets map[string]models.CategorySet) {
		for _, arch := range sortedKeys(sets) {
			set := sets[arch]
			for _, cat := range categoryOrder {
				writeList(cat.field+"_"+arch, cat.get(&set))
			}
			for _, sum := range checksumOrder {
				writeList(sum.field+"_"+arch, set.Checksums[sum.key])
			}
		}
	}

	fmt.Fprintf(&buf, "pkgbase = %s\n", recipe.Base)
	writeField("pkgdesc", recipe.Description)
	writeField("pkgver", recipe.Version.Version)
	writeField("pkgrel", recipe.Version.Release)
	if recipe.Version.Epoch > 0 {
		writeField("epoch", strconv.Itoa(recipe.Version.Epoch))
	}
	writeField("url", recipe.URL)
	writeField("install", recipe.Install)
	writeField("changelog", recipe.Changelog)
	writeList("arch", recipe.Arch)
	writeList("groups", recipe.Groups)
	writeList("license", recipe.License)
	writeList("noextract", recipe.NoExtract)
	writeList("options", recipe.Options)
	writeList("backup", recipe.Backup)
	writeList("validpgpkeys", recipe.ValidPGPKeys)
	writeCategories(&recipe.Categories)
	writeArchCategories(recipe.ArchCategories)

	for i := range recipe.Packages {
		pkg := &recipe.Packages[i]
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "pkgname = %s\n", pkg.Name)
		writeOverride(&buf, "pkgdesc", pkg.Description)
		writeOverride(&buf, "url", pkg.URL)
		writeOverride(&buf, "install", pkg.Install)
		writeOverride(&buf, "changelog", pkg.Changelog)
		writeList("arch", pkg.Arch)
		writeList("groups", pkg.Groups)
		writeList("license", pkg.License)
		writeList("options", pkg.Options)
		writeList("backup", pkg.Backup)
		writeCategories(&pkg.Relations)
		writeArchCategories(pkg.ArchRelations)
	}

	return buf.Bytes()
}

func writeOverride(buf *bytes.Buffer, name string, value *string) {
	if value != nil && *value != "" {
		fmt.Fprintf(buf, "\t%s = %s\n", name, *value)
	}
}

func sortedKeys(sets map[string]models.CategorySet) []string {
	if len(sets) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sets))
	for key := range sets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
