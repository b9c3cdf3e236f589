package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/ir"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Kernel    string
	Namespace string
	ClassName string
	Output    string
	Database  string
	Force     bool

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// GenerateResult describes a generation run.
type GenerateResult struct {
	RunID      string `json:"run_id"`
	Seq        int64  `json:"seq,omitempty"`
	Kernel     string `json:"kernel"`
	KernelHash string `json:"kernel_hash"`
	Namespace  string `json:"namespace"`
	ClassName  string `json:"class_name"`
	Nodes      int    `json:"nodes"`
	Statements int    `json:"statements"`
	Temps      int    `json:"temps"`
	Cached     bool   `json:"cached"`
	Output     string `json:"output,omitempty"`
	Code       string `json:"code,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <kernels-dir>",
		Short: "Generate a C++ kernel class",
		Long: `Generate the C++ class for a kernel.

The code is written to stdout unless --output is given. With --db the run
and its expression graph are recorded in a SQLite database, and a later run
of an unchanged kernel with the same namespace and class reuses the stored
code unless --force is given.

Examples:
  symgen generate ./kernels --kernel pendulum
  symgen generate ./kernels --kernel pendulum -n dyn -c Pendulum -o pendulum.hpp
  symgen generate ./kernels --kernel pendulum --db ./symgen.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kernel, "kernel", "", "kernel to generate (optional when only one is defined)")
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "C++ namespace (overrides the kernel's)")
	cmd.Flags().StringVarP(&opts.ClassName, "class", "c", "", "C++ class name (overrides the kernel's)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database recording runs")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "regenerate even when a stored run matches")

	return cmd
}

func runGenerate(opts *GenerateOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()
	ctx := commandContext(cmd)

	k, err := loadKernel(formatter, dir, opts.Kernel)
	if err != nil {
		return err
	}
	hash, err := ir.KernelHash(k)
	if err != nil {
		return formatter.Fail(ExitCommandError, fmt.Errorf("hashing kernel %s: %w", k.Name, err))
	}
	codeOpts := codeOptions(k, opts.Namespace, opts.ClassName)

	result, err := generateOrReuse(ctx, opts, formatter, k, hash, codeOpts)
	if err != nil {
		return err
	}
	logger.Info("kernel ready",
		"kernel", k.Name,
		"run_id", result.RunID,
		"cached", result.Cached)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Code), 0644); err != nil {
			_ = formatter.Error(compiler.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, compiler.ErrCodeWriteFailed, err)
		}
		result.Output = opts.Output
	}

	return outputGenerateResult(formatter, result)
}

// generateOrReuse returns the stored run for the kernel when --db holds one
// and --force is not set, and otherwise generates and records a new run.
func generateOrReuse(ctx context.Context, opts *GenerateOptions, f *OutputFormatter, k ir.Kernel, hash string, codeOpts engine.CodeOptions) (*GenerateResult, error) {
	result := &GenerateResult{
		Kernel:     k.Name,
		KernelHash: hash,
		Namespace:  codeOpts.Namespace,
		ClassName:  codeOpts.ClassName,
	}

	if opts.Database != "" {
		st, err := openStore(f, opts.Database)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		if !opts.Force {
			run, found, err := st.FindRun(ctx, hash, codeOpts.Namespace, codeOpts.ClassName)
			if err != nil {
				return nil, f.Fail(ExitCommandError, fmt.Errorf("looking up stored run: %w", err))
			}
			if found {
				f.VerboseLog("Reusing run %s (seq %d)", run.ID, run.Seq)
				fillFromRun(result, run)
				result.Cached = true
				return result, nil
			}
		}

		art, err := generate(f, opts, k, codeOpts)
		if err != nil {
			return nil, err
		}
		run, nodes := art.Record(k.Name, hash)
		stored, err := st.WriteRun(ctx, run, nodes)
		if err != nil {
			return nil, f.Fail(ExitCommandError, fmt.Errorf("recording run: %w", err))
		}
		f.VerboseLog("Recorded run %s (seq %d)", stored.ID, stored.Seq)
		fillFromRun(result, stored)
		return result, nil
	}

	art, err := generate(f, opts, k, codeOpts)
	if err != nil {
		return nil, err
	}
	result.RunID = art.RunID
	result.Nodes = len(art.Nodes)
	result.Statements = art.Statements()
	result.Temps = art.NumTemps
	result.Code = art.Code
	return result, nil
}

func generate(f *OutputFormatter, opts *GenerateOptions, k ir.Kernel, codeOpts engine.CodeOptions) (*engine.Artifact, error) {
	var sessOpts []engine.Option
	if opts.RunIDs != nil {
		sessOpts = append(sessOpts, engine.WithRunIDs(opts.RunIDs))
	}
	s, err := instantiate(f, k, sessOpts...)
	if err != nil {
		return nil, err
	}
	art, err := s.Generate(codeOpts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, fmt.Errorf("generating kernel %s: %w", k.Name, err))
	}
	return art, nil
}

func fillFromRun(result *GenerateResult, run ir.Run) {
	result.RunID = run.ID
	result.Seq = run.Seq
	result.Nodes = run.NodeCount
	result.Statements = run.StatementCount
	result.Temps = run.NumTemps
	result.Code = run.Code
}

func outputGenerateResult(formatter *OutputFormatter, result *GenerateResult) error {
	if formatter.Format == "json" {
		if result.Output != "" {
			result.Code = ""
		}
		return formatter.encode(CLIResponse{Status: "ok", Data: result, RunID: result.RunID})
	}

	if result.Output == "" {
		fmt.Fprint(formatter.Writer, result.Code)
		return nil
	}

	source := "generated"
	if result.Cached {
		source = "reused"
	}
	fmt.Fprintf(formatter.Writer, "✓ %s %s::%s from kernel %s\n", source, result.Namespace, result.ClassName, result.Kernel)
	fmt.Fprintf(formatter.Writer, "  run %s: %d node(s), %d statement(s), %d temp(s)\n",
		result.RunID, result.Nodes, result.Statements, result.Temps)
	fmt.Fprintf(formatter.Writer, "  wrote %s\n", result.Output)
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
