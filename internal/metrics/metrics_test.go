package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.LedgerMutation("income.create")
	m.LedgerMutation("income.create")
	m.ToolCall("add_income", "ok")
	m.ObserveRequest("GET", "GET /api/income", 200, 15*time.Millisecond)

	if got := testutil.ToFloat64(m.ledgerMutations.WithLabelValues("income.create")); got != 2 {
		t.Errorf("ledger mutations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("add_income", "ok")); got != 1 {
		t.Errorf("tool calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/income", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.LedgerMutation("x")
	m.ToolCall("x", "ok")
	m.ObserveRequest("GET", "", 200, time.Second)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ToolCall("list_income", "error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `budget_tool_calls_total{outcome="error",tool="list_income"} 1`) {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}
