package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "render",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}

	if NewCollector(testConfig(), nil).Registry() == nil {
		t.Error("nil registry should be replaced with a fresh one")
	}
}

func TestCollector_RecordRender(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRender(2*time.Microsecond, 7, 5)
	collector.RecordRender(3*time.Microsecond, 3, 2)
	collector.RecordFailure("unrecognized_node", time.Microsecond)

	if got := testutil.ToFloat64(collector.rendersTotal.WithLabelValues(StatusOK)); got != 2 {
		t.Errorf("renders_total{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.rendersTotal.WithLabelValues(StatusError)); got != 1 {
		t.Errorf("renders_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.failuresTotal.WithLabelValues("unrecognized_node")); got != 1 {
		t.Errorf("failures_total = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(collector.treeNodes); n != 1 {
		t.Errorf("tree_nodes collected %d series, want 1", n)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.RecordRender(time.Second, 1, 1)
	c.RecordFailure("x", time.Second)
	c.RecordBatch(3)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordBatch(4)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_render_batch_size") {
		t.Errorf("scrape output missing batch_size metric:\n%s", body)
	}
}

func TestCollector_RuntimeMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.RuntimeMetrics = true
	registry := prometheus.NewRegistry()
	NewCollector(cfg, registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "go_") {
			found = true
			break
		}
	}
	if !found {
		t.Error("runtime metrics enabled but no go_* families gathered")
	}
}
