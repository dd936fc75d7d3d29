package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wildfunctions/infixast/pkg/engine"
	"github.com/wildfunctions/infixast/pkg/expr"
)

type renderOptions struct {
	input    string
	format   string
	latex    bool
	lenient  bool
	maxDepth int
	workers  int
}

func newRenderCmd(g *globalOptions) *cobra.Command {
	o := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [files...]",
		Short: "Render trees from JSON or YAML files",
		Long: `Render reads expression trees and prints their infix form, one per line.

Each file may hold a single tree, a JSON array of trees, or a YAML stream
whose documents are trees or sequences of trees. With no files, or "-",
stdin is read. The command fails if any tree cannot be rendered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, o, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "auto", "input format (json, yaml, auto)")
	f.StringVarP(&o.format, "format", "f", "text", "output format (text, json, latex)")
	f.BoolVar(&o.latex, "latex", false, "also render LaTeX")
	f.BoolVar(&o.lenient, "lenient", false, `render unrecognized nodes as "" instead of failing`)
	f.IntVar(&o.maxDepth, "max-depth", 0, "reject trees deeper than this (0 = unlimited)")
	f.IntVar(&o.workers, "workers", 0, "parallel workers (0 = from config)")
	return cmd
}

func runRender(cmd *cobra.Command, g *globalOptions, o *renderOptions, args []string) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, _, err := g.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ecfg := cfg.Engine
	flags := cmd.Flags()
	if flags.Changed("latex") {
		ecfg.LaTeX = o.latex
	}
	if flags.Changed("lenient") {
		ecfg.Lenient = o.lenient
	}
	if flags.Changed("max-depth") {
		ecfg.MaxDepth = o.maxDepth
	}
	if o.workers > 0 {
		ecfg.Workers = o.workers
	}
	if o.format == "latex" {
		ecfg.LaTeX = true
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	var docs []engine.Document
	for _, name := range args {
		d, err := readDocuments(cmd.InOrStdin(), name, o.input)
		if err != nil {
			return err
		}
		docs = append(docs, d...)
	}

	eng, err := engine.New(ecfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	report := eng.Run(cmd.Context(), docs)

	out := cmd.OutOrStdout()
	switch o.format {
	case "json":
		if err := engine.WriteJSONReport(out, report); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
	case "latex":
		engine.WriteLatexDocument(out, report)
	case "text":
		for _, res := range report.Results {
			engine.WriteTextResult(out, res)
		}
	default:
		return fmt.Errorf("unknown output format %q (text, json, latex)", o.format)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d trees failed to render", report.Failed, len(report.Results))
	}
	return nil
}

// readDocuments decodes every tree in the named file ("-" is stdin). IDs are
// "<name>#<index>".
func readDocuments(stdin io.Reader, name, input string) ([]engine.Document, error) {
	var (
		data []byte
		err  error
	)
	label := name
	if name == "-" {
		label = "stdin"
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", label, err)
	}

	nodes, err := decodeTrees(data, resolveInput(input, name, data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	docs := make([]engine.Document, len(nodes))
	for i, n := range nodes {
		docs[i] = engine.Document{ID: fmt.Sprintf("%s#%d", label, i), Tree: expr.Tree{Node: n}}
	}
	return docs, nil
}

// resolveInput picks json or yaml for "auto" from the file extension, then
// from the first non-blank byte.
func resolveInput(input, name string, data []byte) string {
	if input != "auto" {
		return input
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	if t := bytes.TrimSpace(data); len(t) > 0 && (t[0] == '{' || t[0] == '[') {
		return "json"
	}
	return "yaml"
}

func decodeTrees(data []byte, input string) ([]expr.Node, error) {
	switch input {
	case "json":
		return expr.DecodeJSONList(data)
	case "yaml":
		return expr.DecodeYAMLStream(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unknown input format %q (json, yaml, auto)", input)
	}
}
