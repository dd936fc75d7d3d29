package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wildfunctions/infixast/pkg/expr"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
	"github.com/wildfunctions/infixast/pkg/telemetry/metrics"
)

// Document is one tree to render. Documents without an ID get a UUID.
type Document struct {
	ID   string    `json:"id,omitempty" yaml:"id,omitempty"`
	Tree expr.Tree `json:"tree" yaml:"tree"`
}

// NewDocument wraps n in a Document with no ID.
func NewDocument(n expr.Node) Document {
	return Document{Tree: expr.Tree{Node: n}}
}

// Failure reasons used as metric labels.
const (
	ReasonUnrecognized = "unrecognized_node"
	ReasonTooDeep      = "too_deep"
	ReasonCanceled     = "canceled"
	ReasonOther        = "other"
)

// FailureReason maps a render error to one of the Reason constants.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, expr.ErrUnrecognizedNode):
		return ReasonUnrecognized
	case errors.Is(err, expr.ErrTooDeep):
		return ReasonTooDeep
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonOther
	}
}

// Engine renders batches of trees.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Collector
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records every render on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithIDGenerator replaces the UUID generator for documents without an ID.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates a new engine from the given config.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// RenderOne renders a single document.
func (e *Engine) RenderOne(ctx context.Context, doc Document) Result {
	start := time.Now()
	res := Result{ID: doc.ID}
	if res.ID == "" {
		res.ID = e.newID()
	}
	ctx = logging.WithDocumentID(ctx, res.ID)

	if err := ctx.Err(); err != nil {
		return e.fail(ctx, res, err, start)
	}

	n := doc.Tree.Node
	opts := expr.RenderOptions{Lenient: e.cfg.Lenient, MaxDepth: e.cfg.MaxDepth}
	infix, err := opts.Render(n)
	if err != nil {
		return e.fail(ctx, res, err, start)
	}
	res.Infix = infix

	if e.cfg.LaTeX {
		latex, err := expr.LaTeX(n)
		switch {
		case err == nil:
			res.LaTeX = latex
		case !e.cfg.Lenient:
			return e.fail(ctx, res, err, start)
		}
	}

	res.Nodes = expr.NodeCount(n)
	res.Depth = expr.Depth(n)
	res.Duration = time.Since(start)

	e.metrics.RecordRender(res.Duration, res.Nodes, res.Depth)
	e.logger.DebugContext(ctx, "rendered tree", "nodes", res.Nodes, "depth", res.Depth, "duration", res.Duration)
	return res
}

func (e *Engine) fail(ctx context.Context, res Result, err error, start time.Time) Result {
	res.Err = err
	res.Error = err.Error()
	res.Reason = FailureReason(err)
	res.Duration = time.Since(start)

	e.metrics.RecordFailure(res.Reason, res.Duration)
	e.logger.WarnContext(ctx, "render failed", "reason", res.Reason, "error", err)
	return res
}

// Run renders all documents in parallel and returns a report with results in
// input order. Once ctx is done, remaining documents fail with ctx.Err().
func (e *Engine) Run(ctx context.Context, docs []Document) Report {
	start := time.Now()
	n := len(docs)
	results := make([]Result, n)

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	type job struct {
		idx int
		doc Document
	}

	jobs := make(chan job, n)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := e.RenderOne(ctx, j.doc)
				r.Index = j.idx
				results[j.idx] = r
			}
		}()
	}

	for i, d := range docs {
		jobs <- job{idx: i, doc: d}
	}
	close(jobs)
	wg.Wait()

	report := Report{
		Config:  e.cfg,
		Results: results,
		Elapsed: time.Since(start),
	}
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
		} else {
			report.Rendered++
		}
	}

	e.metrics.RecordBatch(n)
	e.logger.InfoContext(ctx, "render run finished",
		"documents", n,
		"rendered", report.Rendered,
		"failed", report.Failed,
		"workers", workers,
		"elapsed", report.Elapsed,
	)
	return report
}
