package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wildfunctions/infixast/pkg/engine"
	"github.com/wildfunctions/infixast/pkg/expr"
	"github.com/wildfunctions/infixast/pkg/telemetry/logging"
)

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type renderResponse struct {
	ID    string `json:"id"`
	Infix string `json:"infix"`
	LaTeX string `json:"latex,omitempty"`
	Nodes int    `json:"nodes"`
	Depth int    `json:"depth"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDecodeError maps body and tree decoding failures to a status code.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}

	var de *expr.DecodeError
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		if de.Kind == expr.DecodeUnknownTag {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: de.Error(), Kind: string(de.Kind), Path: de.Path})
		return
	}

	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	n, err := expr.DecodeJSON(body)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	doc := engine.Document{ID: logging.RequestID(r.Context()), Tree: expr.Tree{Node: n}}
	res := s.Engine().RenderOne(r.Context(), doc)
	if !res.OK() {
		status := http.StatusUnprocessableEntity
		if res.Reason == engine.ReasonCanceled {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, errorResponse{Error: res.Error, Reason: res.Reason})
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{
		ID:    res.ID,
		Infix: res.Infix,
		LaTeX: res.LaTeX,
		Nodes: res.Nodes,
		Depth: res.Depth,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()

	var docs []engine.Document
	if err := dec.Decode(&docs); err != nil {
		writeDecodeError(w, err)
		return
	}
	if len(docs) > s.cfg.MaxBatchSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "too many documents in batch"})
		return
	}
	for i, d := range docs {
		if d.Tree.Node == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "document has no tree", Path: pathIndex(i)})
			return
		}
	}

	report := s.Engine().Run(r.Context(), docs)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = engine.WriteJSONReport(w, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathIndex(i int) string {
	return fmt.Sprintf("[%d]", i)
}
