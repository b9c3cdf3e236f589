package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	kernelsDir   = filepath.Join("..", "..", "testdata", "kernels")
	invalidDir   = filepath.Join("..", "..", "testdata", "invalid")
	scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeAll(t, cmd, args...)
	return out, err
}

// executeAll runs cmd with args and returns its stdout and stderr.
func executeAll(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse decodes a JSON CLIResponse and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp.CLIResponse
}

// writeKernels writes src as the only kernel file of a new directory.
func writeKernels(t *testing.T, src string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "kernels")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.cue"), []byte(src), 0644))
	return dir
}

const squareKernel = `kernel: sq: {
	inputs: [{name: "x"}]
	outputs: [
		{name: "y", exprs: ["x[0]*x[0]"]},
		{name: "dy", jacobian: {of: "y", wrt: "x"}},
	]
}
`
