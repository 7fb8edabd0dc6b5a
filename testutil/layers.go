package testutil

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Layer restricts who may import the packages under Infra. Only packages under
// Owner, or under Infra itself, may import them. With ProductionOnly set, test
// packages are exempt so they can wire concrete drivers into fixtures.
type Layer struct {
	Infra          string
	Owner          string
	ProductionOnly bool
}

// AssertLayering loads pattern (e.g. "travelbook/...") and fails on every
// package that reaches into layer.Infra without owning it.
func AssertLayering(t testing.TB, pattern string, layer Layer) {
	t.Helper()
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: !layer.ProductionOnly}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	viols := layerViolations(pkgs, layer)
	for _, v := range viols {
		t.Errorf("forbidden import of %s: %s", layer.Infra, v)
	}
	if len(viols) > 0 {
		t.Fatalf("found %d packages bypassing %s", len(viols), layer.Owner)
	}
}

func layerViolations(pkgs []*packages.Package, layer Layer) []string {
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if underPath(pkg.PkgPath, layer.Owner) || underPath(pkg.PkgPath, layer.Infra) {
			continue
		}
		for importPath := range pkg.Imports {
			if underPath(importPath, layer.Infra) {
				seen[pkg.PkgPath+" -> "+importPath] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
