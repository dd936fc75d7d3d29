package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Result is the outcome of rendering one document.
type Result struct {
	Index    int           `json:"index"`
	ID       string        `json:"id"`
	Infix    string        `json:"infix,omitempty"`
	LaTeX    string        `json:"latex,omitempty"`
	Nodes    int           `json:"nodes,omitempty"`
	Depth    int           `json:"depth,omitempty"`
	Error    string        `json:"error,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	Err error `json:"-"`
}

// OK reports whether the document rendered.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report summarizes a whole run.
type Report struct {
	Config   Config        `json:"config"`
	Results  []Result      `json:"results"`
	Rendered int           `json:"rendered"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// WriteTextReport writes one line per result followed by a summary line.
func WriteTextReport(w io.Writer, r Report) {
	for _, res := range r.Results {
		WriteTextResult(w, res)
	}
	fmt.Fprintf(w, "--- %d rendered, %d failed in %s\n", r.Rendered, r.Failed, r.Elapsed.Round(time.Microsecond))
}

// WriteTextResult writes a single result.
func WriteTextResult(w io.Writer, res Result) {
	if !res.OK() {
		fmt.Fprintf(w, "[%s] error (%s): %s\n", res.ID, res.Reason, res.Error)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", res.ID, res.Infix)
	if res.LaTeX != "" {
		fmt.Fprintf(w, "[%s] latex: %s\n", res.ID, res.LaTeX)
	}
}

// WriteJSONReport writes the report as JSON.
func WriteJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// latexEscape escapes underscores and other special chars for LaTeX text mode.
func latexEscape(s string) string {
	r := strings.NewReplacer(`\`, `\textbackslash{}`, "_", `\_`, "$", `\$`, "#", `\#`, "%", `\%`, "&", `\&`, "{", `\{`, "}", `\}`, "^", `\textasciicircum{}`, "~", `\textasciitilde{}`)
	return r.Replace(s)
}

// verbDelims are tried in order for \verb; none may appear in the text.
const verbDelims = "|!+@:;/=\"'"

// latexVerbatim typesets s as inline verbatim text. When every delimiter
// occurs in s it falls back to escaped \texttt.
func latexVerbatim(s string) string {
	for _, d := range verbDelims {
		if !strings.ContainsRune(s, d) {
			return fmt.Sprintf(`\verb%c%s%c`, d, s, d)
		}
	}
	return fmt.Sprintf(`\texttt{%s}`, latexEscape(s))
}

// WriteLatexDocument writes a compilable LaTeX document with one display
// equation per rendered tree. Results without LaTeX are listed verbatim.
func WriteLatexDocument(w io.Writer, r Report) {
	fmt.Fprintln(w, `\documentclass{article}`)
	fmt.Fprintln(w, `\usepackage{amsmath}`)
	fmt.Fprintln(w, `\usepackage{geometry}`)
	fmt.Fprintln(w, `\geometry{margin=1in}`)
	fmt.Fprintln(w, `\title{Rendered expressions}`)
	fmt.Fprintln(w, `\date{\today}`)
	fmt.Fprintln(w, `\begin{document}`)
	fmt.Fprintln(w, `\maketitle`)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\\noindent Documents: %d, Rendered: %d, Failed: %d\\\\\n", len(r.Results), r.Rendered, r.Failed)
	fmt.Fprintf(w, "Workers: %d, Max depth: %d, Lenient: %t\n\n", r.Config.Workers, r.Config.MaxDepth, r.Config.Lenient)

	for i, res := range r.Results {
		fmt.Fprintf(w, "\\subsection*{\\#%d --- \\texttt{%s}}\n", i+1, latexEscape(res.ID))
		switch {
		case !res.OK():
			fmt.Fprintf(w, "\\noindent Error: \\texttt{%s}\n\n", latexEscape(res.Error))
		case res.LaTeX != "":
			fmt.Fprintln(w, `\[`)
			fmt.Fprintf(w, "  %s\n", res.LaTeX)
			fmt.Fprintln(w, `\]`)
			fmt.Fprintf(w, "\\noindent Infix: %s\n\n", latexVerbatim(res.Infix))
		default:
			fmt.Fprintf(w, "\\noindent Infix: %s\n\n", latexVerbatim(res.Infix))
		}
	}

	fmt.Fprintln(w, `\end{document}`)
}
