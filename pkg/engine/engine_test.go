package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wildfunctions/infixast/pkg/expr"
	"github.com/wildfunctions/infixast/pkg/pool"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
	"github.com/wildfunctions/infixast/pkg/telemetry/metrics"
)

func quadratic() expr.Node {
	b, a := expr.Variable("$b"), expr.Variable("$a")
	return expr.Div(
		expr.Group(expr.Add(b, expr.Sqrt(expr.Sub(expr.Sqr(b), expr.Mul(expr.Num(4), a))))),
		expr.Group(expr.Mul(expr.Num(2), a)),
	)
}

func sequentialIDs() Option {
	i := 0
	return WithIDGenerator(func() string {
		i++
		return fmt.Sprintf("gen-%d", i)
	})
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEngine_SmallRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.LaTeX = true
	e := newTestEngine(t, cfg, sequentialIDs())

	docs := []Document{
		{ID: "worked", Tree: expr.Tree{Node: expr.Group(expr.Add(expr.Group(expr.Mul(expr.Num(2), expr.Num(4))), expr.Num(5)))}},
		NewDocument(quadratic()),
		{ID: "sqr", Tree: expr.Tree{Node: expr.Sqr(expr.Variable("x"))}},
	}

	report := e.Run(context.Background(), docs)

	if report.Rendered != 3 || report.Failed != 0 {
		t.Fatalf("rendered %d failed %d, want 3/0", report.Rendered, report.Failed)
	}
	want := []struct{ id, infix, latex string }{
		{"worked", "((2 * 4) + 5)", `\left(\left(2 \cdot 4\right) + 5\right)`},
		{"gen-1", "($b + SQRT(SQR($b) - 4 * $a)) / (2 * $a)", ""},
		{"sqr", "SQR(x)", "{x}^{2}"},
	}
	for i, w := range want {
		r := report.Results[i]
		if r.Index != i || r.ID != w.id || r.Infix != w.infix {
			t.Errorf("result %d = {%d %q %q}, want {%d %q %q}", i, r.Index, r.ID, r.Infix, i, w.id, w.infix)
		}
		if w.latex != "" && r.LaTeX != w.latex {
			t.Errorf("result %d latex = %q, want %q", i, r.LaTeX, w.latex)
		}
		if r.Nodes == 0 || r.Depth == 0 {
			t.Errorf("result %d missing stats: nodes=%d depth=%d", i, r.Nodes, r.Depth)
		}
	}
	if got := report.Results[2]; got.Nodes != 2 || got.Depth != 2 {
		t.Errorf("SQR(x) stats = nodes %d depth %d, want 2/2", got.Nodes, got.Depth)
	}
}

func TestEngine_DefaultIDsAreUUIDs(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	report := e.Run(context.Background(), []Document{NewDocument(expr.Num(1)), NewDocument(expr.Num(2))})

	a, b := report.Results[0].ID, report.Results[1].ID
	if len(a) != 36 || strings.Count(a, "-") != 4 {
		t.Errorf("generated ID %q is not a UUID", a)
	}
	if a == b {
		t.Errorf("generated IDs collide: %q", a)
	}
}

func TestEngine_ParallelPreservesOrder(t *testing.T) {
	p, err := pool.Get("kitchensink")
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(42))

	docs := make([]Document, 200)
	want := make([]string, len(docs))
	for i := range docs {
		tree := p.RandomTree(rng, 5)
		docs[i] = Document{ID: fmt.Sprintf("d%03d", i), Tree: expr.Tree{Node: tree}}
		want[i] = expr.MustRender(tree)
	}

	cfg := DefaultConfig()
	cfg.Workers = 8
	report := newTestEngine(t, cfg).Run(context.Background(), docs)

	if report.Rendered != len(docs) {
		t.Fatalf("rendered %d of %d", report.Rendered, len(docs))
	}
	for i, r := range report.Results {
		if r.ID != docs[i].ID || r.Infix != want[i] {
			t.Fatalf("result %d = %s %q, want %s %q", i, r.ID, r.Infix, docs[i].ID, want[i])
		}
	}
}

func TestEngine_Failures(t *testing.T) {
	broken := expr.Add(expr.Num(1), nil)
	deep := expr.Group(expr.Group(expr.Group(expr.Num(1))))

	cfg := DefaultConfig()
	cfg.MaxDepth = 3
	e := newTestEngine(t, cfg)

	report := e.Run(context.Background(), []Document{
		{ID: "broken", Tree: expr.Tree{Node: broken}},
		{ID: "deep", Tree: expr.Tree{Node: deep}},
		{ID: "fine", Tree: expr.Tree{Node: expr.Num(1)}},
	})

	if report.Rendered != 1 || report.Failed != 2 {
		t.Fatalf("rendered %d failed %d, want 1/2", report.Rendered, report.Failed)
	}
	if r := report.Results[0]; r.Reason != ReasonUnrecognized || !errors.Is(r.Err, expr.ErrUnrecognizedNode) {
		t.Errorf("broken: reason %q err %v", r.Reason, r.Err)
	}
	if r := report.Results[1]; r.Reason != ReasonTooDeep || !errors.Is(r.Err, expr.ErrTooDeep) {
		t.Errorf("deep: reason %q err %v", r.Reason, r.Err)
	}
	if r := report.Results[1]; r.Infix != "" {
		t.Errorf("failed result carries infix %q", r.Infix)
	}
}

func TestEngine_Lenient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lenient = true
	cfg.LaTeX = true
	e := newTestEngine(t, cfg)

	r := e.RenderOne(context.Background(), Document{ID: "x", Tree: expr.Tree{Node: expr.Add(expr.Num(1), nil)}})
	if !r.OK() {
		t.Fatalf("lenient render failed: %v", r.Err)
	}
	if r.Infix != "1 + " {
		t.Errorf("Infix = %q, want %q", r.Infix, "1 + ")
	}
	if r.LaTeX != "" {
		t.Errorf("LaTeX = %q, want empty for a tree LaTeX cannot render", r.LaTeX)
	}
}

func TestEngine_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestEngine(t, DefaultConfig()).Run(ctx, []Document{NewDocument(expr.Num(1)), NewDocument(expr.E())})
	if report.Failed != 2 {
		t.Fatalf("failed = %d, want 2", report.Failed)
	}
	for _, r := range report.Results {
		if r.Reason != ReasonCanceled || !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %s: reason %q err %v", r.ID, r.Reason, r.Err)
		}
	}
}

func TestEngine_EmptyBatch(t *testing.T) {
	report := newTestEngine(t, DefaultConfig()).Run(context.Background(), nil)
	if len(report.Results) != 0 || report.Rendered != 0 || report.Failed != 0 {
		t.Errorf("empty run report = %+v", report)
	}
}

func TestEngine_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Workers: -1}); err == nil {
		t.Error("expected error for negative workers")
	}
	if _, err := New(Config{MaxDepth: -2}); err == nil {
		t.Error("expected error for negative max depth")
	}
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := metrics.DefaultConfig()
	cfg.Namespace = "test"
	cfg.RuntimeMetrics = false
	c := metrics.NewCollector(cfg, reg)

	e := newTestEngine(t, DefaultConfig(), WithMetrics(c))
	e.Run(context.Background(), []Document{
		NewDocument(expr.Num(1)),
		NewDocument(expr.Sqr(expr.Pi())),
		NewDocument(expr.Mul(nil, expr.Num(2))),
	})

	n, err := testutil.GatherAndCount(reg, "test_render_renders_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("renders_total series = %d, want 2 (ok and error)", n)
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&expr.UnrecognizedNodeError{Tag: "X"}, ReasonUnrecognized},
		{fmt.Errorf("wrap: %w", expr.ErrTooDeep), ReasonTooDeep},
		{context.DeadlineExceeded, ReasonCanceled},
		{errors.New("boom"), ReasonOther},
	}
	for _, tt := range tests {
		if got := FailureReason(tt.err); got != tt.want {
			t.Errorf("FailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWriteReports(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LaTeX = true
	e := newTestEngine(t, cfg)
	report := e.Run(context.Background(), []Document{
		{ID: "ok_1", Tree: expr.Tree{Node: expr.Pow(expr.E(), expr.Variable("x"))}},
		{ID: "bad", Tree: expr.Tree{Node: expr.Group(nil)}},
	})

	var text bytes.Buffer
	WriteTextReport(&text, report)
	for _, want := range []string{"[ok_1] E^x", "[ok_1] latex: {e}^{x}", "[bad] error (unrecognized_node)", "1 rendered, 1 failed"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text report missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := WriteJSONReport(&js, report); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Results []struct {
			ID     string `json:"id"`
			Infix  string `json:"infix"`
			Reason string `json:"reason"`
		} `json:"results"`
		Rendered int `json:"rendered"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Rendered != 1 || decoded.Results[0].Infix != "E^x" || decoded.Results[1].Reason != ReasonUnrecognized {
		t.Errorf("decoded JSON report = %+v", decoded)
	}

	var tex bytes.Buffer
	WriteLatexDocument(&tex, report)
	for _, want := range []string{`\begin{document}`, `{e}^{x}`, `\texttt{ok\_1}`, `\end{document}`} {
		if !strings.Contains(tex.String(), want) {
			t.Errorf("latex document missing %q", want)
		}
	}
}

func TestWriteLatexDocument_EscapesNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LaTeX = true
	e := newTestEngine(t, cfg)
	report := e.Run(context.Background(), []Document{
		{ID: "quad", Tree: expr.Tree{Node: quadratic()}},
		{ID: "pipe", Tree: expr.Tree{Node: expr.Variable("a|b")}},
	})
	if report.Failed != 0 {
		t.Fatalf("failed = %d, want 0", report.Failed)
	}

	var tex bytes.Buffer
	WriteLatexDocument(&tex, report)
	doc := tex.String()

	// Inside display math every dollar sign must be escaped.
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "  ") && strings.Contains(strings.ReplaceAll(line, `\$`, ""), "$") {
			t.Errorf("unescaped $ in math line %q", line)
		}
	}
	for _, want := range []string{
		`\mathit{\$b}`,
		`\verb|($b + SQRT(SQR($b) - 4 * $a)) / (2 * $a)|`,
		`\verb!a|b!`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("latex document missing %q", want)
		}
	}
}

func TestLatexVerbatim(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2^3", `\verb|2^3|`},
		{"x|y", `\verb!x|y!`},
		{`|!+@:;/="'^`, `\texttt{|!+@:;/="'\textasciicircum{}}`},
	}
	for _, tt := range tests {
		if got := latexVerbatim(tt.in); got != tt.want {
			t.Errorf("latexVerbatim(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
