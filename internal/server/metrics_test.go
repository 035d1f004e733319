package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue returns the value of the named counter whose labels include
// every pair in want, or -1 when absent.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if got[k] != v {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Deps{}, nil)

	// Produce at least one series so the exposition is non-empty.
	do(t, s, http.MethodGet, "/api/health", "")
	w := do(t, s, http.MethodGet, "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "librarian_http_requests_total") {
		t.Error("exposition missing librarian_http_requests_total")
	}
}

func Test_Metrics_RequestCounterByHandlerAndCode(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t, Deps{}, nil)

	do(t, s, http.MethodPost, "/api/recommend", `{"query":"x"}`)
	do(t, s, http.MethodPost, "/api/recommend", `{}`)
	do(t, s, http.MethodPost, "/api/recommend", `{}`)

	if got := counterValue(t, reg, "librarian_http_requests_total",
		map[string]string{"handler": "recommend", "code": "200"}); got != 1 {
		t.Errorf("recommend/200: want 1, got %v", got)
	}
	if got := counterValue(t, reg, "librarian_http_requests_total",
		map[string]string{"handler": "recommend", "code": "422"}); got != 2 {
		t.Errorf("recommend/422: want 2, got %v", got)
	}
}

func Test_Metrics_InFlightGaugeReturnsToZero(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t, Deps{}, nil)

	do(t, s, http.MethodPost, "/api/recommend", `{"query":"x"}`)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "librarian_recommend_in_flight" {
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 0 {
				t.Errorf("want in_flight=0 after completion, got %v", v)
			}
			return
		}
	}
	t.Error("librarian_recommend_in_flight not found in gathered metrics")
}
