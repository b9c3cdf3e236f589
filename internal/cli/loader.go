package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/ir"
	"github.com/roach88/symgen/internal/store"
)

// loadKernel loads one kernel for a command. Failures are reported through
// f and returned as command errors.
func loadKernel(f *OutputFormatter, dir, name string) (ir.Kernel, error) {
	k, err := compiler.LoadKernel(dir, name)
	if err != nil {
		return ir.Kernel{}, f.Fail(ExitCommandError, err)
	}
	f.VerboseLog("Loaded kernel %s from %s", k.Name, dir)
	return k, nil
}

// instantiate builds the kernel's session with the CLI logger.
func instantiate(f *OutputFormatter, k ir.Kernel, opts ...engine.Option) (*engine.Session, error) {
	opts = append([]engine.Option{engine.WithLogger(f.Logger())}, opts...)
	s, err := compiler.Instantiate(k, opts...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, err)
	}
	return s, nil
}

// openStore opens the artifact database with the CLI logger.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path, store.WithLogger(f.Logger()))
	if err != nil {
		_ = f.Error(compiler.ErrCodeNotFound, fmt.Sprintf("opening database: %v", err), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// codeOptions applies command-line overrides to the kernel's naming.
func codeOptions(k ir.Kernel, namespace, className string) engine.CodeOptions {
	opts := engine.CodeOptions{Namespace: k.Namespace, ClassName: k.Class}
	if namespace != "" {
		opts.Namespace = namespace
	}
	if className != "" {
		opts.ClassName = className
	}
	return opts
}

// reportLoadErrors prints every load error and returns the command error.
func reportLoadErrors(f *OutputFormatter, header string, errs []error) error {
	if f.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := f.encode(CLIResponse{Status: "error", Error: &cliErrors[0], Data: cliErrors}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", header, len(errs)))
	}

	fmt.Fprintf(f.Writer, "✗ %s\n\n", capitalize(header))
	for _, err := range errs {
		code, message := parseLoadError(err)
		var le *compiler.LoadError
		if errors.As(err, &le) && le.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column())
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s with %d error(s)", header, len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		return le.Code, le.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
