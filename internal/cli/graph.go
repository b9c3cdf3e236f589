package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/ir"
	"github.com/roach88/symgen/internal/store"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Kernel   string
	DOT      bool
	Database string
	RunID    string
}

// GraphResult holds the expression graph of a kernel or stored run.
type GraphResult struct {
	RunID  string         `json:"run_id,omitempty"`
	Kernel string         `json:"kernel"`
	Nodes  []ir.GraphNode `json:"nodes"`
	Stats  GraphStats     `json:"stats"`
}

// GraphStats holds summary statistics for the graph.
type GraphStats struct {
	Nodes   int `json:"nodes"`
	Aliased int `json:"aliased"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph [kernels-dir]",
		Short: "Show the expression graph of a kernel",
		Long: `Show the expression graph of a kernel.

Every interned node is listed with its dependencies; nodes rewritten by
simplification point at their canonical node. With --dot the graph is
written as a Graphviz digraph. With --db and --run the graph recorded for
a stored run is shown instead.

Examples:
  symgen graph ./kernels --kernel pendulum
  symgen graph ./kernels --kernel pendulum --dot | dot -Tsvg > pendulum.svg
  symgen graph --db ./symgen.db --run 0192f0c4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.RunID != "" {
				if len(args) > 0 {
					return NewExitError(ExitCommandError, "--run reads a stored graph and takes no kernels directory")
				}
				return runStoredGraph(opts, cmd)
			}
			if len(args) == 0 {
				return NewExitError(ExitCommandError, "kernels directory is required unless --run is given")
			}
			return runKernelGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kernel, "kernel", "", "kernel to show (optional when only one is defined)")
	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "write a Graphviz digraph")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (with --run)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "stored run to show")

	return cmd
}

func runKernelGraph(opts *GraphOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	k, err := loadKernel(formatter, dir, opts.Kernel)
	if err != nil {
		return err
	}
	s, err := instantiate(formatter, k)
	if err != nil {
		return err
	}

	if opts.DOT {
		if err := s.WriteDOT(formatter.Writer); err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		return nil
	}
	if formatter.Format != "json" {
		if err := s.ExportGraph(formatter.Writer); err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		return nil
	}

	art, err := s.Generate(engine.CodeOptions{Namespace: k.Namespace, ClassName: k.Class})
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	_, nodes := art.Record(k.Name, "")
	return formatter.Success(newGraphResult("", k.Name, nodes))
}

func runStoredGraph(opts *GraphOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "--db is required with --run")
	}
	if opts.DOT {
		return NewExitError(ExitCommandError, "--dot needs a kernels directory")
	}
	ctx := commandContext(cmd)

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(compiler.ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	nodes, err := st.ReadGraph(ctx, run.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(newGraphResult(run.ID, run.Kernel, nodes))
	}
	fmt.Fprintf(formatter.Writer, "# run %s kernel %s (seq %d)\n", run.ID, run.Kernel, run.Seq)
	if err := graph.WriteListing(formatter.Writer, engine.NodeInfos(nodes)); err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	return nil
}

func newGraphResult(runID, kernel string, nodes []ir.GraphNode) GraphResult {
	res := GraphResult{RunID: runID, Kernel: kernel, Nodes: nodes}
	res.Stats.Nodes = len(nodes)
	for _, n := range nodes {
		if n.Aliased() {
			res.Stats.Aliased++
		}
	}
	return res
}
