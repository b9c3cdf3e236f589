package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kernelsDir = filepath.Join("..", "..", "testdata", "kernels")

func TestLoadKernels_TestdataKernels(t *testing.T) {
	res, errs := LoadKernels(kernelsDir, LoadModeCollectAll)
	require.Empty(t, errs)

	assert.Equal(t, 2, res.FileCount)
	assert.ElementsMatch(t, []string{"pendulum", "spring"}, res.Names())

	k, ok := res.Kernel("pendulum")
	require.True(t, ok)
	assert.Equal(t, "dyn", k.Namespace)
	assert.Equal(t, "Pendulum", k.Class)
	assert.Equal(t, 4, k.Outputs[1].Size)

	spring, ok := res.Kernel("spring")
	require.True(t, ok)
	assert.Equal(t, "generated", spring.Namespace)
	assert.Equal(t, "spring", spring.Class)
	assert.Equal(t, 2, spring.Outputs[1].Size)

	_, ok = res.Kernel("missing")
	assert.False(t, ok)
}

func TestLoadKernels_DirectoryErrors(t *testing.T) {
	_, errs := LoadKernels("/nonexistent/kernels", LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNotFound, LoadCode(errs[0]))

	empty := t.TempDir()
	_, errs = LoadKernels(empty, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNoFiles, LoadCode(errs[0]))

	file := filepath.Join(empty, "file.cue")
	require.NoError(t, os.WriteFile(file, []byte("x: 1\n"), 0644))
	_, errs = LoadKernels(file, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNotFound, LoadCode(errs[0]))
	assert.Contains(t, errs[0].Error(), "not a directory")
}

func TestLoadKernels_NoKernelField(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.cue"), []byte("other: 1\n"), 0644))

	_, errs := LoadKernels(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNoKernels, LoadCode(errs[0]))
}

func TestLoadKernels_ValidationCodesKept(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "invalid")

	_, errs := LoadKernels(dir, LoadModeCollectAll)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSlotCycle, LoadCode(errs[0]))
	assert.Contains(t, errs[0].Error(), "kernel loop")
}

func TestLoadKernels_CollectAllKeepsGoodKernels(t *testing.T) {
	dir := t.TempDir()
	src := `
kernel: good: {
	inputs: [{name: "x"}]
	outputs: [{name: "y", exprs: ["x[0]*x[0]"]}]
}
kernel: bad: {
	inputs: [{name: "x"}]
	outputs: [{name: "y", exprs: ["z[0]"]}]
}
kernel: empty: {
	inputs: [{name: "x"}]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.cue"), []byte(src), 0644))

	res, errs := LoadKernels(dir, LoadModeCollectAll)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrUnknownSlot, LoadCode(errs[0]))
	assert.Equal(t, ErrCodeCompileFailed, LoadCode(errs[1]))
	assert.Contains(t, errs[1].Error(), "kernel.empty")
	assert.Equal(t, []string{"good"}, res.Names())

	_, errs = LoadKernels(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoadKernel_Selection(t *testing.T) {
	k, err := LoadKernel(kernelsDir, "spring")
	require.NoError(t, err)
	assert.Equal(t, "spring", k.Name)

	_, err = LoadKernel(kernelsDir, "nope")
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownKernel, LoadCode(err))

	_, err = LoadKernel(kernelsDir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 kernels defined")

	dir := t.TempDir()
	src := "kernel: only: {\n\tinputs: [{name: \"x\"}]\n\toutputs: [{name: \"y\", exprs: [\"x[0]\"]}]\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only.cue"), []byte(src), 0644))
	k, err = LoadKernel(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "only", k.Name)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
	assert.Equal(t, ErrCodeGeneric, LoadCode(assert.AnError))
}
