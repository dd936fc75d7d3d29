package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wildfunctions/infixast/pkg/engine"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
	"github.com/wildfunctions/infixast/pkg/telemetry/metrics"
)

const workedExample = `{"type":"PAREN","expression":{"type":"ADDITION",
  "left":{"type":"PAREN","expression":{"type":"MULTIPLICATION","left":{"type":"NUMBER","value":2},"right":{"type":"NUMBER","value":4}}},
  "right":{"type":"NUMBER","value":5}}}`

func newTestEngine(t *testing.T, mutate func(*engine.Config)) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := engine.New(cfg, engine.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func newTestServer(t *testing.T, cfg Config, eng *engine.Engine, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	s, err := New(cfg, eng, opts...)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url, body string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRender(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig(), newTestEngine(t, func(c *engine.Config) { c.LaTeX = true }))

	resp := post(t, ts.URL+"/v1/render", workedExample)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got renderResponse
	decodeBody(t, resp, &got)
	if got.Infix != "((2 * 4) + 5)" {
		t.Errorf("infix = %q", got.Infix)
	}
	if got.LaTeX != `\left(\left(2 \cdot 4\right) + 5\right)` {
		t.Errorf("latex = %q", got.LaTeX)
	}
	if got.Nodes != 7 || got.Depth != 5 {
		t.Errorf("nodes/depth = %d/%d, want 7/5", got.Nodes, got.Depth)
	}

	id := resp.Header.Get(RequestIDHeader)
	if len(id) != 36 || got.ID != id {
		t.Errorf("request id header %q, body id %q", id, got.ID)
	}
}

func TestRender_ClientRequestID(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig(), newTestEngine(t, nil))

	resp := post(t, ts.URL+"/v1/render", `{"type":"VARIABLE","name":"x"}`, RequestIDHeader, "client-7")
	var got renderResponse
	decodeBody(t, resp, &got)
	if got.ID != "client-7" || resp.Header.Get(RequestIDHeader) != "client-7" {
		t.Errorf("id = %q header = %q, want client-7", got.ID, resp.Header.Get(RequestIDHeader))
	}
}

func TestRender_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 512
	_, ts := newTestServer(t, cfg, newTestEngine(t, func(c *engine.Config) { c.MaxDepth = 3 }))

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
		reason string
	}{
		{"syntax", `{"type":`, http.StatusBadRequest, "syntax", ""},
		{"unknown field", `{"type":"VARIABLE","name":"x","color":"red"}`, http.StatusBadRequest, "structural", ""},
		{"missing field", `{"type":"POWER","expression":{"type":"E"}}`, http.StatusBadRequest, "structural", ""},
		{"unknown tag", `{"type":"MODULO","left":{"type":"E"},"right":{"type":"PI"}}`, http.StatusUnprocessableEntity, "unknown_tag", ""},
		{"unknown function", `{"type":"FUNCTION","name":"LOG","arguments":[]}`, http.StatusUnprocessableEntity, "unknown_tag", ""},
		{"too deep", `{"type":"PAREN","expression":{"type":"PAREN","expression":{"type":"PAREN","expression":{"type":"E"}}}}`, http.StatusUnprocessableEntity, "", engine.ReasonTooDeep},
		{"too large", `{"type":"VARIABLE","name":"` + strings.Repeat("x", 600) + `"}`, http.StatusRequestEntityTooLarge, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/render", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var got errorResponse
			decodeBody(t, resp, &got)
			if got.Error == "" {
				t.Error("empty error message")
			}
			if got.Kind != tt.kind || got.Reason != tt.reason {
				t.Errorf("kind/reason = %q/%q, want %q/%q", got.Kind, got.Reason, tt.kind, tt.reason)
			}
		})
	}
}

func TestRender_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig(), newTestEngine(t, nil))

	resp, err := http.Get(ts.URL + "/v1/render")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestBatch(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig(), newTestEngine(t, func(c *engine.Config) { c.MaxDepth = 2 }))

	body := `[
	  {"id": "a", "tree": {"type":"FUNCTION","name":"SQR","arguments":[{"type":"VARIABLE","name":"x"}]}},
	  {"tree": {"type":"POWER","expression":{"type":"NUMBER","value":2},"power":{"type":"NUMBER","value":3}}},
	  {"id": "c", "tree": {"type":"PAREN","expression":{"type":"PAREN","expression":{"type":"E"}}}}
	]`
	resp := post(t, ts.URL+"/v1/render/batch", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report struct {
		Results []struct {
			ID     string `json:"id"`
			Infix  string `json:"infix"`
			Reason string `json:"reason"`
		} `json:"results"`
		Rendered int `json:"rendered"`
		Failed   int `json:"failed"`
	}
	decodeBody(t, resp, &report)

	if report.Rendered != 2 || report.Failed != 1 || len(report.Results) != 3 {
		t.Fatalf("report = %+v", report)
	}
	if r := report.Results[0]; r.ID != "a" || r.Infix != "SQR(x)" {
		t.Errorf("result 0 = %+v", r)
	}
	if r := report.Results[1]; r.ID == "" || r.Infix != "2^3" {
		t.Errorf("result 1 = %+v", r)
	}
	if r := report.Results[2]; r.ID != "c" || r.Reason != engine.ReasonTooDeep {
		t.Errorf("result 2 = %+v", r)
	}
}

func TestBatch_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 2
	_, ts := newTestServer(t, cfg, newTestEngine(t, nil))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not an array", `{"id":"a"}`, http.StatusBadRequest},
		{"missing tree", `[{"id":"a"}]`, http.StatusBadRequest},
		{"bad tree", `[{"id":"a","tree":{"type":"NUMBER"}}]`, http.StatusBadRequest},
		{"unknown tag", `[{"id":"a","tree":{"type":"LOG"}}]`, http.StatusUnprocessableEntity},
		{"unknown document field", `[{"id":"a","doc":1,"tree":{"type":"E"}}]`, http.StatusBadRequest},
		{"too many", `[{"tree":{"type":"E"}},{"tree":{"type":"E"}},{"tree":{"type":"E"}}]`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/render/batch", tt.body)
			if resp.StatusCode != tt.status {
				b, _ := io.ReadAll(resp.Body)
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, b)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	mcfg := metrics.DefaultConfig()
	mcfg.RuntimeMetrics = false
	collector := metrics.NewCollector(mcfg, prometheus.NewRegistry())

	eng, err := engine.New(engine.DefaultConfig(), engine.WithLogger(logging.Discard()), engine.WithMetrics(collector))
	if err != nil {
		t.Fatal(err)
	}
	_, ts := newTestServer(t, DefaultConfig(), eng, WithMetrics(collector))

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]string
	decodeBody(t, resp, &health)
	resp.Body.Close()
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	post(t, ts.URL+"/v1/render", `{"type":"E"}`)

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), `infixast_render_renders_total{status="ok"} 1`) {
		t.Errorf("metrics missing render counter:\n%s", b)
	}
}

func TestSetEngine(t *testing.T) {
	s, ts := newTestServer(t, DefaultConfig(), newTestEngine(t, nil))

	var got renderResponse
	decodeBody(t, post(t, ts.URL+"/v1/render", `{"type":"PI"}`), &got)
	if got.LaTeX != "" {
		t.Errorf("latex before swap = %q", got.LaTeX)
	}

	s.SetEngine(newTestEngine(t, func(c *engine.Config) { c.LaTeX = true }))
	decodeBody(t, post(t, ts.URL+"/v1/render", `{"type":"PI"}`), &got)
	if got.LaTeX != `\pi` {
		t.Errorf("latex after swap = %q, want \\pi", got.LaTeX)
	}
}

func TestRecovery(t *testing.T) {
	h := recovery(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("panic value leaked to client: %s", rec.Body.String())
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(DefaultConfig(), newTestEngine(t, nil), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(`{"type":"E"}`))
	req.Header.Set(RequestIDHeader, "log-1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request completed" || entry["request_id"] != "log-1" || entry["status"] != float64(200) {
		t.Errorf("access log entry = %v", entry)
	}
}

func TestStartShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	s, err := New(cfg, newTestEngine(t, nil), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !s.IsRunning() {
		t.Error("IsRunning = false after start")
	}

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if s.IsRunning() {
		t.Error("IsRunning = true after shutdown")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 0
	if _, err := New(cfg, newTestEngine(t, nil)); err == nil {
		t.Error("expected error for zero max body bytes")
	}
	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Error("expected error for nil engine")
	}
}
