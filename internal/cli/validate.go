package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/compiler"
)

// ValidationIssue is one reported problem.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Kernels []string          `json:"kernels,omitempty"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kernels-dir>",
		Short: "Validate kernels without generating code",
		Long: `Validate CUE kernel definitions without generating code.

Checks slot declarations, the expression language, index ranges, Jacobian
shapes and slot dependency cycles, and reports every problem found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := compiler.LoadKernels(dir, compiler.LoadModeCollectAll)

	// Directory-level failures (not found, no files) have no result.
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)
	for _, name := range loadResult.Names() {
		formatter.VerboseLog("Validated kernel: %s", name)
	}

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, issuesFrom(loadErrors))
	}
	return outputValidateSuccess(formatter, loadResult.Names())
}

func issuesFrom(errs []error) []ValidationIssue {
	issues := make([]ValidationIssue, len(errs))
	for i, err := range errs {
		code, message := parseLoadError(err)
		issues[i] = ValidationIssue{Code: code, Message: message}
		var le *compiler.LoadError
		if errors.As(err, &le) && le.Pos.IsValid() {
			issues[i].File = le.Pos.Filename()
			issues[i].Line = le.Pos.Line()
		}
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, kernels []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Kernels: kernels})
	}

	fmt.Fprintf(formatter.Writer, "✓ All kernels valid (%d kernel(s))\n", len(kernels))
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
		})
		if err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintf(formatter.Writer, "✗ Validation failed with %d error(s)\n\n", len(issues))
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "  [%s] %s (%s:%d)\n", issue.Code, issue.Message, issue.File, issue.Line)
		} else {
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
