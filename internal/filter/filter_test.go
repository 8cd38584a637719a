package filter

import (
	"testing"

	"github.com/yourorg/yapits/pkg/types"
)

func TestApplyIgnoresPathsAndMethods(t *testing.T) {
	cfg := FilterConfig{
		IgnorePaths:   []string{"/internal/", "/debug"},
		IgnoreMethods: []string{"options", "HEAD"},
	}
	list := []types.InterfaceSummary{
		{ID: 1, Method: "OPTIONS", Path: "/api/ping"},
		{ID: 2, Method: "GET", Path: "/internal/metrics"},
		{ID: 3, Method: "GET", Path: "/debug/vars"},
		{ID: 4, Method: "head", Path: "/api/user"},
		{ID: 5, Method: "GET", Path: "/api/user"},
	}

	out := Apply(list, cfg)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].ID != 5 {
		t.Fatalf("expected id 5, got %d", out[0].ID)
	}
}

func TestApplyMergesIdenticalEndpoints(t *testing.T) {
	list := []types.InterfaceSummary{
		{ID: 1, Method: "GET", Path: "/api/users"},
		{ID: 2, Method: "get", Path: "/api/users/"},
		{ID: 3, Method: "POST", Path: "/api/users"},
		{ID: 4},
		{ID: 5},
	}

	out := Apply(list, FilterConfig{})
	if len(out) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(out))
	}
	if out[0].ID != 1 || out[1].ID != 3 || out[2].ID != 4 || out[3].ID != 5 {
		t.Fatalf("unexpected order %+v", out)
	}
}
