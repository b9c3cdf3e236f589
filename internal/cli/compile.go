package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledKernel is a kernel together with its content hash.
type CompiledKernel struct {
	Kernel     ir.Kernel `json:"kernel"`
	KernelHash string    `json:"kernel_hash"`
}

// CompilationResult holds the compiled kernels in definition order.
type CompilationResult struct {
	IRVersion string           `json:"ir_version"`
	Kernels   []CompiledKernel `json:"kernels"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <kernels-dir>",
		Short: "Compile CUE kernels to IR",
		Long: `Compile CUE kernel definitions to their IR form.

Every kernel is parsed, validated and hashed. The hash covers the slots and
expressions but not the namespace or class name, so renaming a class keeps
its hash.

Examples:
  symgen compile ./kernels
  symgen compile ./kernels -o kernels.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := compiler.LoadKernels(dir, compiler.LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return reportLoadErrors(formatter, "compilation failed", loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	result := &CompilationResult{IRVersion: ir.IRVersion}
	for _, k := range loadResult.Kernels {
		formatter.VerboseLog("Compiling kernel: %s", k.Name)
		hash, err := ir.KernelHash(k)
		if err != nil {
			return formatter.Fail(ExitCommandError, fmt.Errorf("hashing kernel %s: %w", k.Name, err))
		}
		result.Kernels = append(result.Kernels, CompiledKernel{Kernel: k, KernelHash: hash})
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			_ = formatter.Error(compiler.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, compiler.ErrCodeWriteFailed, err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d kernel(s)\n\n", len(result.Kernels))
	for _, ck := range result.Kernels {
		k := ck.Kernel
		fmt.Fprintf(w, "  %s: %d input(s), %d output(s), %s::%s, hash %s\n",
			k.Name, len(k.Inputs), len(k.Outputs), k.Namespace, k.Class, ck.KernelHash[:12])
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote IR to %s\n", outputFile)
	}
	return nil
}

// writeIRToFile writes the compilation result as indented JSON.
// (canonical JSON without indentation is used only for hashing)
func writeIRToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
