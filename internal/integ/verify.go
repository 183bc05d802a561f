package integ

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/srcforge/pkgparse/internal/models"
)

// SkipChecksum marks a source entry excluded from verification,
// typically a VCS source
const SkipChecksum = "SKIP"

// Mismatch is one failed checksum comparison
type Mismatch struct {
	Source string
	Algo   string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s mismatch (want %s, got %s)", m.Source, m.Algo, m.Want, m.Got)
}

// VerifySources checks the default-set source files of a recipe, looked up
// in dir by their local file names, against every checksum array the
// recipe declares. SKIP entries are not verified. A checksum array whose
// length differs from the source array is an error; mismatched digests
// are returned, not an error.
func VerifySources(recipe *models.Recipe, dir string) ([]Mismatch, error) {
	return verifySet(&recipe.Categories, dir)
}

// VerifyArchSources is VerifySources for one per-architecture source set
func VerifyArchSources(recipe *models.Recipe, arch, dir string) ([]Mismatch, error) {
	set, ok := recipe.ArchCategories[arch]
	if !ok {
		return nil, nil
	}
	return verifySet(&set, dir)
}

func verifySet(set *models.CategorySet, dir string) ([]Mismatch, error) {
	// wanted[i] maps algo -> expected digest for the i-th source
	wanted := make([]map[string]string, len(set.Sources))
	for _, algo := range sortedAlgos(set.Checksums) {
		values := set.Checksums[algo]
		if len(values) != len(set.Sources) {
			return nil, fmt.Errorf("%ssums has %d entries for %d sources", algo, len(values), len(set.Sources))
		}
		for i, value := range values {
			if value == SkipChecksum {
				continue
			}
			if wanted[i] == nil {
				wanted[i] = make(map[string]string)
			}
			wanted[i][algo] = value
		}
	}

	var mismatches []Mismatch
	for i, source := range set.Sources {
		if len(wanted[i]) == 0 {
			continue
		}
		name := models.ParseSource(source).Name
		path := filepath.Join(dir, name)
		algos := make([]string, 0, len(wanted[i]))
		for algo := range wanted[i] {
			algos = append(algos, algo)
		}
		sort.Strings(algos)

		sums, err := FileDigests(path, algos)
		if err != nil {
			return nil, fmt.Errorf("failed to digest %s: %w", name, err)
		}
		for _, algo := range algos {
			want := wanted[i][algo]
			if !strings.EqualFold(sums[algo], want) {
				mismatches = append(mismatches, Mismatch{Source: name, Algo: algo, Want: want, Got: sums[algo]})
			}
		}
		logrus.Debugf("Verified %s against %d digests", name, len(algos))
	}
	return mismatches, nil
}

func sortedAlgos(checksums map[string][]string) []string {
	algos := make([]string, 0, len(checksums))
	for algo := range checksums {
		algos = append(algos, algo)
	}
	sort.Strings(algos)
	return algos
}
