package shared

import "testing"

func TestCoreAuthoritiesAreDistinct(t *testing.T) {
	seen := map[string]struct{}{}
	for _, authority := range CoreAuthorities() {
		if authority == "" {
			t.Fatal("empty authority in core set")
		}
		if _, ok := seen[authority]; ok {
			t.Fatalf("duplicate authority %q", authority)
		}
		seen[authority] = struct{}{}
	}
}

func TestHasAuthorityNilPrincipal(t *testing.T) {
	var p *Principal
	if p.HasAuthority(PermViewPatients) {
		t.Fatal("nil principal must hold no authorities")
	}
}
