package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symgen/internal/ir"
)

// Load error codes (E001-E099), shared with the CLI.
const (
	ErrCodeGeneric       = "E001" // generic/unknown error
	ErrCodeScanError     = "E002" // directory scan error
	ErrCodeNoFiles       = "E003" // no CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // file write error
	ErrCodeCompileFailed = "E008" // kernel struct could not be read
	ErrCodeNoKernels     = "E009" // no kernel definitions found
	ErrCodeUnknownKernel = "E010" // requested kernel is not defined
)

// LoadMode controls how errors are handled during kernel loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the kernels found in a directory, in CUE field order.
type LoadResult struct {
	Kernels   []ir.Kernel
	Value     cue.Value
	FileCount int
}

// Kernel returns the kernel with the given name.
func (r *LoadResult) Kernel(name string) (ir.Kernel, bool) {
	for _, k := range r.Kernels {
		if k.Name == name {
			return k, true
		}
	}
	return ir.Kernel{}, false
}

// Names returns the kernel names in load order.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Kernels))
	for i, k := range r.Kernels {
		names[i] = k.Name
	}
	return names
}

// LoadError represents an error that occurred while loading kernels.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCode returns the code of a *LoadError in err's chain, or ErrCodeGeneric.
func LoadCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// LoadKernels loads every `kernel: <name>: {...}` definition from the CUE
// files in dir, compiles it and validates it. Validation errors keep their
// E1xx code.
func LoadKernels(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("kernels directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing kernels directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{Value: value, FileCount: len(cueFiles)}
	var errs []error

	kernels := value.LookupPath(cue.ParsePath("kernel"))
	if !kernels.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoKernels, Message: fmt.Sprintf("no kernel definitions found in %s", dir)}}
	}
	iter, err := kernels.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating kernels: %v", err)}}
	}
	for iter.Next() {
		kv := iter.Value()
		k, err := CompileKernel(kv)
		if err != nil {
			errs = append(errs, convertCompileError(err, "kernel."+iter.Selector().String()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		verrs := Validate(*k)
		for _, ve := range verrs {
			errs = append(errs, &LoadError{
				Code:    ve.Code,
				Message: fmt.Sprintf("kernel %s: %s: %s", k.Name, ve.Field, ve.Message),
				Pos:     kv.Pos(),
			})
		}
		if len(verrs) > 0 {
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Kernels = append(result.Kernels, *k)
	}

	if len(result.Kernels) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoKernels, Message: fmt.Sprintf("no kernel definitions found in %s", dir)})
	}
	return result, errs
}

// LoadKernel loads dir and returns the named kernel. An empty name selects
// the only kernel when exactly one is defined.
func LoadKernel(dir, name string) (ir.Kernel, error) {
	res, errs := LoadKernels(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return ir.Kernel{}, errs[0]
	}
	if name == "" {
		if len(res.Kernels) != 1 {
			return ir.Kernel{}, &LoadError{
				Code:    ErrCodeUnknownKernel,
				Message: fmt.Sprintf("%d kernels defined, select one of %v", len(res.Kernels), res.Names()),
			}
		}
		return res.Kernels[0], nil
	}
	k, ok := res.Kernel(name)
	if !ok {
		return ir.Kernel{}, &LoadError{
			Code:    ErrCodeUnknownKernel,
			Message: fmt.Sprintf("kernel %q not found (have %v)", name, res.Names()),
		}
	}
	return k, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, context string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s: %s", context, ce.Field, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeCompileFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
