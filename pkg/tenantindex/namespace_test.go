package tenantindex

import (
	"strings"
	"testing"
)

func TestNamespace(t *testing.T) {
	tests := []struct {
		name  string
		orgID string
	}{
		{name: "uuid org", orgID: "3f2b8c1a-9d4e-4f6a-8b2c-1d3e5f7a9b0c"},
		{name: "plain org", orgID: "acme"},
		{name: "empty org", orgID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := Namespace(tt.orgID)
			if !strings.HasPrefix(ns, "org_") || !strings.HasSuffix(ns, "_docs") {
				t.Errorf("Namespace(%q) = %q, want org_<8 hex>_docs shape", tt.orgID, ns)
			}
			if len(ns) != len("org_")+8+len("_docs") {
				t.Errorf("Namespace(%q) = %q, wrong length", tt.orgID, ns)
			}
		})
	}
}

func TestNamespaceDeterministic(t *testing.T) {
	a := Namespace("org-one")
	for i := 0; i < 10; i++ {
		if got := Namespace("org-one"); got != a {
			t.Fatalf("Namespace changed between calls: %q vs %q", got, a)
		}
	}
}

func TestNamespaceIgnoresDashes(t *testing.T) {
	// The dash-stripped forms are identical, so the namespaces must be too.
	if Namespace("ab-cd") != Namespace("abcd") {
		t.Errorf("dash placement changed the namespace")
	}
}

func TestNamespaceDistinctOrgs(t *testing.T) {
	if Namespace("org-a") == Namespace("org-b") {
		t.Errorf("distinct orgs mapped to the same namespace")
	}
}
