package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/srcforge/pkgparse/internal/models"
)

func decodeAll(t *testing.T, stream string) []Result {
	t.Helper()
	dec := NewDecoder()
	for _, line := range strings.Split(stream, "\n") {
		if err := dec.Line(line); err != nil {
			t.Fatalf("Line(%q) failed: %v", line, err)
		}
	}
	if dec.Open() {
		t.Fatal("Expected decoder to be idle after the stream")
	}
	return dec.Results()
}

func TestDecodeSimpleRecipe(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
base:zlib
name:zlib
ver:1.3.1
rel:2
epoch:
desc:Compression library
url:https://zlib.net/
install:
changelog:
license:custom:zlib
pkgver_func:n
arch:x86_64
dep:glibc
makedep:cmake
source:https://zlib.net/zlib-1.3.1.tar.gz
sha256:9a93b2b7dfdac77ceba5a558a580e74667dd6fede4585b91eefb60f03b72df23
PACKAGE
name:zlib
END
END`)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0].Recipe
	if results[0].Err != nil {
		t.Fatalf("Unexpected recipe error: %v", results[0].Err)
	}
	if r.Base != "zlib" || len(r.Packages) != 1 || r.Packages[0].Name != "zlib" {
		t.Errorf("Unexpected identity: base=%q packages=%v", r.Base, r.Packages)
	}
	if r.Version.Version != "1.3.1" || r.Version.Release != "2" || r.Version.Epoch != 0 {
		t.Errorf("Unexpected version: %+v", r.Version)
	}
	// Values are split on the first colon only
	if len(r.License) != 1 || r.License[0] != "custom:zlib" {
		t.Errorf("Expected license to keep its colon, got %v", r.License)
	}
	if len(r.Categories.Depends) != 1 || r.Categories.Depends[0] != "glibc" {
		t.Errorf("Unexpected depends: %v", r.Categories.Depends)
	}
	if got := r.Categories.Checksums["sha256"]; len(got) != 1 {
		t.Errorf("Expected one sha256 entry, got %v", got)
	}
}

func TestDecodeSplitPackageOverrides(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
base:gcc
name:gcc
name:gcc-libs
ver:14.1.0
rel:1
desc:The GNU Compiler Collection
url:https://gcc.gnu.org
pkgver_func:n
arch:x86_64
dep:binutils
license:GPL
PACKAGE
name:gcc
END
PACKAGE
name:gcc-libs
set:desc
desc:Runtime libraries
set:url
url:
set:license
dep:glibc
END
END`)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0].Recipe
	if len(r.Packages) != 2 {
		t.Fatalf("Expected 2 packages, got %d", len(r.Packages))
	}

	plain := r.Package("gcc").Resolve(r)
	if plain.Description != "The GNU Compiler Collection" {
		t.Errorf("Expected gcc to inherit the description, got %q", plain.Description)
	}
	if !reflect.DeepEqual(plain.License, []string{"GPL"}) {
		t.Errorf("Expected gcc to inherit the license, got %v", plain.License)
	}

	libs := r.Package("gcc-libs")
	resolved := libs.Resolve(r)
	if resolved.Description != "Runtime libraries" {
		t.Errorf("Expected override description, got %q", resolved.Description)
	}
	// Declared empty beats inheritance
	if resolved.URL != "" {
		t.Errorf("Expected declared-empty url to win, got %q", resolved.URL)
	}
	if libs.License == nil || len(resolved.License) != 0 {
		t.Errorf("Expected declared-empty license, got %v", resolved.License)
	}
	// Dependency relations never inherit
	if !reflect.DeepEqual(libs.Relations.Depends, []string{"glibc"}) {
		t.Errorf("Unexpected gcc-libs depends: %v", libs.Relations.Depends)
	}
}

func TestDecodeArchSections(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
base:tool
name:tool
ver:1
rel:1
pkgver_func:n
arch:x86_64
arch:aarch64
dep:common
ARCH
arch:x86_64
dep:nasm
source:blob-x86_64.bin
END
PACKAGE
name:tool
PACKAGEARCH
arch:aarch64
dep:arm-extra
END
END
END`)
	r := results[0].Recipe
	x86 := r.ArchCategories["x86_64"]
	if !reflect.DeepEqual(x86.Depends, []string{"nasm"}) || !reflect.DeepEqual(x86.Sources, []string{"blob-x86_64.bin"}) {
		t.Errorf("Unexpected x86_64 categories: %+v", x86)
	}
	arm := r.Packages[0].ArchRelations["aarch64"]
	if !reflect.DeepEqual(arm.Depends, []string{"arm-extra"}) {
		t.Errorf("Unexpected aarch64 package relations: %+v", arm)
	}
	// Package-scoped arch sections carry no sources
	if arm.Sources != nil {
		t.Errorf("Expected no package-scope sources, got %v", arm.Sources)
	}
}

func TestDecodeEvaluatorRejection(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
base:good
name:good
ver:1
rel:1
pkgver_func:n
END
PKGBUILD
error:pkgname is not set
END
PKGBUILD
base:also-good
name:also-good
ver:1
rel:1
pkgver_func:n
END`)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("Expected surrounding records to decode: %v / %v", results[0].Err, results[2].Err)
	}
	var pe *models.ParseError
	if !errors.As(results[1].Err, &pe) {
		t.Fatalf("Expected a ParseError, got %v", results[1].Err)
	}
	if !strings.Contains(pe.Error(), "pkgname is not set") {
		t.Errorf("Unexpected message: %v", pe)
	}
}

func TestDecodeUnknownKeysIgnored(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
base:app
name:app
ver:1
rel:1
pkgver_func:n
frobnicate:whatever
sha3:deadbeef
END`)
	if results[0].Err != nil {
		t.Fatalf("Unknown keys must not fail the record: %v", results[0].Err)
	}
}

func TestDecodeMarkerOutOfOrder(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
	}{
		{"stray end", []string{"END"}},
		{"data before record", []string{"base:oops"}},
		{"nested recipe marker", []string{"PKGBUILD", "PKGBUILD"}},
		{"arch outside recipe", []string{"ARCH"}},
		{"package arch outside package", []string{"PKGBUILD", "PACKAGEARCH"}},
		{"bare word", []string{"PKGBUILD", "notakeyvalue"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder()
			var err error
			for _, line := range tc.lines {
				if err = dec.Line(line); err != nil {
					break
				}
			}
			var pe *models.ProtocolError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected a ProtocolError, got %v", err)
			}
		})
	}
}

func TestDecodeMixedAnyArch(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
base:app
name:app
ver:1
rel:1
pkgver_func:n
arch:any
arch:x86_64
END`)
	var pe *models.ParseError
	if !errors.As(results[0].Err, &pe) {
		t.Fatalf("Expected a ParseError for mixed any, got %v", results[0].Err)
	}
}

func TestDecodeBaseDefaultsToSolePackage(t *testing.T) {
	results := decodeAll(t, `PKGBUILD
name:solo
ver:1
rel:1
pkgver_func:n
END`)
	if got := results[0].Recipe.Base; got != "solo" {
		t.Errorf("Expected base to default to the sole package, got %q", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	desc := "Runtime libraries"
	recipe := &models.Recipe{
		Base:          "gcc",
		Version:       models.Version{Epoch: 1, Version: "14.1.0", Release: "3"},
		Description:   "The GNU Compiler Collection",
		URL:           "https://gcc.gnu.org",
		Arch:          []string{"x86_64", "aarch64"},
		License:       []string{"GPL", "LGPL"},
		Options:       []string{"!emptydirs"},
		HasPkgverFunc: true,
		Categories: models.CategorySet{
			Depends:     []string{"binutils", "libmpc"},
			MakeDepends: []string{"git"},
			Sources:     []string{"https://gcc.gnu.org/gcc-14.1.0.tar.xz"},
			Checksums:   map[string][]string{"sha256": {"deadbeef"}, "b2": {"cafe"}},
		},
		ArchCategories: map[string]models.CategorySet{
			"x86_64": {Depends: []string{"nasm"}},
		},
		Packages: []models.Package{
			{Name: "gcc"},
			{
				Name:        "gcc-libs",
				Description: &desc,
				License:     []string{},
				Relations:   models.CategorySet{Depends: []string{"glibc"}},
				ArchRelations: map[string]models.CategorySet{
					"aarch64": {Provides: []string{"libgcc"}},
				},
			},
		},
	}

	results := decodeAll(t, string(EncodeRecipe(recipe)))
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Round trip failed: %+v", results)
	}
	if !reflect.DeepEqual(results[0].Recipe, recipe) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", results[0].Recipe, recipe)
	}
}
