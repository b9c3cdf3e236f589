package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symgen/internal/ir"
)

func TestCompileValidKernels(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), kernelsDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 kernel(s)")
	assert.Contains(t, out, "pendulum: 2 input(s), 2 output(s), dyn::Pendulum, hash ")
	assert.Contains(t, out, "spring: 2 input(s), 2 output(s), generated::spring, hash ")
}

func TestCompileValidKernelsJSON(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), kernelsDir)
	require.NoError(t, err)

	var result CompilationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.IRVersion, result.IRVersion)
	require.Len(t, result.Kernels, 2)
	for _, ck := range result.Kernels {
		want, err := ir.KernelHash(ck.Kernel)
		require.NoError(t, err)
		assert.Equal(t, want, ck.KernelHash, ck.Kernel.Name)
	}
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "kernels.json")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), kernelsDir, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote IR to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Kernels, 2)
	names := []string{result.Kernels[0].Kernel.Name, result.Kernels[1].Kernel.Name}
	assert.ElementsMatch(t, []string{"pendulum", "spring"}, names)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "E003")
}

func TestCompileInvalidKernel(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), invalidDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E114")
	assert.Contains(t, err.Error(), "compilation failed with")
}

func TestCompileInvalidKernelJSON(t *testing.T) {
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), invalidDir)
	require.Error(t, err)

	var issues []CLIError
	resp := decodeResponse(t, out, &issues)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E114", resp.Error.Code)
	require.NotEmpty(t, issues)
	assert.Equal(t, resp.Error.Code, issues[0].Code)
}

func TestCompileVerboseOutput(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text", Verbose: true})
	_, errOut, err := executeAll(t, cmd, kernelsDir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Found 2 CUE file(s)")
	assert.Contains(t, errOut, "Compiling kernel: pendulum")
}
