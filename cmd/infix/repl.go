package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/wildfunctions/infixast/pkg/expr"
	"github.com/wildfunctions/infixast/pkg/pool"
)

const (
	historyFile = ".infix_history"
	promptMain  = "infix> "
	promptCont  = "  ...> "
)

const replHelp = `Enter a tree as JSON or YAML. JSON may span lines until it is complete;
YAML ends at a blank line. Commands:
  :latex          toggle LaTeX output
  :lenient        toggle lenient rendering
  :gen [pool]     render a random tree from a pool
  :help           show this help
  :quit           exit`

func newReplCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Render trees interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			s := &replSession{
				opts:  expr.RenderOptions{Lenient: cfg.Engine.Lenient, MaxDepth: cfg.Engine.MaxDepth},
				latex: cfg.Engine.LaTeX,
				rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
				out:   cmd.OutOrStdout(),
				errw:  cmd.ErrOrStderr(),
			}
			return runRepl(s)
		},
	}
}

// replSession holds the toggles and output streams of one REPL.
type replSession struct {
	opts  expr.RenderOptions
	latex bool
	rng   *rand.Rand
	out   io.Writer
	errw  io.Writer
}

func runRepl(s *replSession) error {
	fmt.Fprintln(s.out, "infix "+Version+" (:help for commands)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok := readTree(ln.Prompt)
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				return nil
			}
			continue
		}
		s.eval(src)
	}
}

// readTree prompts until the collected lines form a complete input. A line
// starting with ":" is a command. JSON input ends when it decodes or fails
// for a reason other than truncation; YAML input ends at a blank line.
func readTree(prompt func(string) (string, error)) (string, bool) {
	var b strings.Builder

	for {
		p := promptMain
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := prompt(p)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			return "", false
		}

		if b.Len() == 0 {
			t := strings.TrimSpace(line)
			if t == "" || strings.HasPrefix(t, ":") {
				return line, true
			}
		} else if strings.TrimSpace(line) == "" && !looksJSON(b.String()) {
			return b.String(), true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if looksJSON(src) {
			if _, err := expr.DecodeJSON([]byte(src)); err == nil || !truncated(err) {
				return src, true
			}
		}
	}
}

func looksJSON(src string) bool {
	t := strings.TrimSpace(src)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}

// truncated reports whether a JSON decode failed only because input ended.
func truncated(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// command runs a ":" command and reports whether the session should end.
func (s *replSession) command(line string) (quit bool) {
	fields := strings.Fields(strings.ToLower(line))
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	case ":latex":
		s.latex = !s.latex
		fmt.Fprintf(s.out, "latex output %s\n", onOff(s.latex))
	case ":lenient":
		s.opts.Lenient = !s.opts.Lenient
		fmt.Fprintf(s.out, "lenient rendering %s\n", onOff(s.opts.Lenient))
	case ":gen":
		name := "moderate"
		if len(fields) > 1 {
			name = fields[1]
		}
		p, err := pool.Get(name)
		if err != nil {
			fmt.Fprintln(s.errw, "error:", err)
			return false
		}
		tree := p.RandomTree(s.rng, 4)
		data, err := expr.EncodeJSON(tree)
		if err != nil {
			fmt.Fprintln(s.errw, "error:", err)
			return false
		}
		fmt.Fprintf(s.out, "%s\n", data)
		s.print(tree)
	default:
		fmt.Fprintln(s.out, "unknown command. Type :help for commands.")
	}
	return false
}

// eval decodes src as JSON or YAML and prints its rendering.
func (s *replSession) eval(src string) {
	var (
		n   expr.Node
		err error
	)
	if looksJSON(src) {
		n, err = expr.DecodeJSON([]byte(src))
	} else {
		n, err = expr.DecodeYAML(bytes.TrimSpace([]byte(src)))
	}
	if err != nil {
		fmt.Fprintln(s.errw, "error:", err)
		return
	}
	s.print(n)
}

func (s *replSession) print(n expr.Node) {
	text, err := s.opts.Render(n)
	if err != nil {
		fmt.Fprintln(s.errw, "error:", err)
		return
	}
	fmt.Fprintln(s.out, text)

	if s.latex {
		tex, err := expr.LaTeX(n)
		if err != nil {
			fmt.Fprintln(s.errw, "latex error:", err)
			return
		}
		fmt.Fprintln(s.out, "latex:", tex)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
