package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/ir"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Kernel   string
}

// RunSummary is one listed run without its code.
type RunSummary struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Kernel     string `json:"kernel"`
	KernelHash string `json:"kernel_hash"`
	Namespace  string `json:"namespace"`
	ClassName  string `json:"class_name"`
	Nodes      int    `json:"nodes"`
	Statements int    `json:"statements"`
	Temps      int    `json:"temps"`
	CodeHash   string `json:"code_hash"`
}

// RunsResult holds the listed runs in seq order.
type RunsResult struct {
	Runs  []RunSummary `json:"runs"`
	Total int          `json:"total"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded generation runs",
		Long: `List the generation runs recorded in a database, oldest first.

Examples:
  symgen runs --db ./symgen.db
  symgen runs --db ./symgen.db --kernel pendulum --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kernel, "kernel", "", "list runs of one kernel only")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), opts.Kernel)
	if err != nil {
		return formatter.Fail(ExitCommandError, fmt.Errorf("listing runs: %w", err))
	}

	result := RunsResult{Runs: make([]RunSummary, len(runs)), Total: len(runs)}
	for i, r := range runs {
		result.Runs[i] = summarize(r)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs found in database.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tKERNEL\tCLASS\tNODES\tSTMTS\tTEMPS\tCODE")
	for _, r := range result.Runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s::%s\t%d\t%d\t%d\t%s\n",
			r.Seq, r.ID, r.Kernel, r.Namespace, r.ClassName,
			r.Nodes, r.Statements, r.Temps, shortHash(r.CodeHash))
	}
	return tw.Flush()
}

func summarize(r ir.Run) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Seq:        r.Seq,
		Kernel:     r.Kernel,
		KernelHash: r.KernelHash,
		Namespace:  r.Namespace,
		ClassName:  r.ClassName,
		Nodes:      r.NodeCount,
		Statements: r.StatementCount,
		Temps:      r.NumTemps,
		CodeHash:   r.CodeHash,
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
