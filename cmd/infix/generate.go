package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wildfunctions/infixast/pkg/expr"
	"github.com/wildfunctions/infixast/pkg/pool"
)

type generateOptions struct {
	pool   string
	depth  int
	count  int
	seed   int64
	output string
	render bool

	from      string
	mutations int
}

func newGenerateCmd(g *globalOptions) *cobra.Command {
	o := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random well-formed trees",
		Long: `Generate writes random trees drawn from a node pool. The output can be fed
back into "infix render" or used as test fixtures.

With --from, trees are derived from the seed trees in a file instead: each
output tree is a seed tree with --mutations random mutations applied.

The seed in use is logged at debug level (--verbose) so a run can be
repeated with --seed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.pool, "pool", "p", "moderate", "node pool ("+strings.Join(pool.Names(), ", ")+")")
	f.IntVarP(&o.depth, "depth", "d", 4, "max tree depth")
	f.IntVarP(&o.count, "count", "n", 10, "number of trees")
	f.Int64Var(&o.seed, "seed", 0, "random seed (0 = random)")
	f.StringVarP(&o.output, "output", "o", "json", "output format (json, yaml)")
	f.BoolVar(&o.render, "render", false, "print infix text instead of trees")
	f.StringVar(&o.from, "from", "", "derive trees from the seed trees in this file")
	f.IntVarP(&o.mutations, "mutations", "m", 1, "mutations per derived tree (with --from)")
	return cmd
}

func runGenerate(cmd *cobra.Command, g *globalOptions, o *generateOptions) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, _, err := g.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	p, err := pool.Get(o.pool)
	if err != nil {
		return err
	}
	if o.depth < 1 {
		return fmt.Errorf("depth must be >= 1, got %d", o.depth)
	}
	if o.count < 0 {
		return fmt.Errorf("count must be >= 0, got %d", o.count)
	}

	seed := o.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	logger.Debug("generating trees", "pool", p.Name(), "depth", o.depth, "count", o.count, "seed", seed, "from", o.from)

	var seeds []expr.Node
	if o.from != "" {
		docs, err := readDocuments(cmd.InOrStdin(), o.from, "auto")
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("%s holds no trees", o.from)
		}
		for _, d := range docs {
			seeds = append(seeds, d.Tree.Node)
		}
	}

	trees := make([]expr.Node, o.count)
	for i := range trees {
		if seeds == nil {
			trees[i] = p.RandomTree(rng, o.depth)
			continue
		}
		t := seeds[i%len(seeds)]
		for j := 0; j < o.mutations; j++ {
			t = pool.Mutate(t, p, rng)
		}
		trees[i] = t
	}

	out := cmd.OutOrStdout()
	if o.render {
		for _, t := range trees {
			s, err := expr.Render(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
		}
		return nil
	}

	switch o.output {
	case "json":
		data, err := expr.EncodeJSONList(trees)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	case "yaml":
		return expr.EncodeYAMLStream(out, trees)
	default:
		return fmt.Errorf("unknown output format %q (json, yaml)", o.output)
	}
}
