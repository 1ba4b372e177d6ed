package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/todoitems":      "/todoitems",
		"/todoitems/42":   "/todoitems/{id}",
		"/todoitems/42/":  "/todoitems/{id}/",
		"/auth/login":     "/auth/login",
		"/":               "/",
		"/todoitems/abc1": "/todoitems/abc1",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestIncAuth(t *testing.T) {
	before := testutil.ToFloat64(AuthEvents.WithLabelValues("login", "success"))
	IncAuth("login", "success")
	after := testutil.ToFloat64(AuthEvents.WithLabelValues("login", "success"))
	if after-before != 1 {
		t.Errorf("auth_events_total delta: got %v, want 1", after-before)
	}
}

func TestAddPruned_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(RevokedSessionsPruned)
	AddPruned(0)
	AddPruned(3)
	if got := testutil.ToFloat64(RevokedSessionsPruned) - before; got != 3 {
		t.Errorf("pruned delta: got %v, want 3", got)
	}
}
