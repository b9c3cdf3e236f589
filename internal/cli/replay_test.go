package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symgen/internal/ir"
	"github.com/roach88/symgen/internal/store"
	"github.com/roach88/symgen/internal/testutil"
)

// forgeRun stores a copy of run src under id with edit applied.
func forgeRun(t *testing.T, dbPath, src, id string, edit func(r *ir.Run)) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(dbPath, store.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(ctx, src)
	require.NoError(t, err)
	run.ID, run.Seq = id, 0
	edit(&run)
	_, err = st.WriteRun(ctx, run, nil)
	require.NoError(t, err)
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), kernelsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}),
		kernelsDir, "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), kernelsDir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 run(s)")
	assert.Contains(t, out, "✓ Run: run-1 (pendulum -> dyn::Pendulum)")
	assert.Contains(t, out, "✓ Run: run-2 (spring -> generated::spring)")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplaySpecificRunJSON(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "json"}), kernelsDir, "--db", dbPath, "--run", "run-2")
	require.NoError(t, err)

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllDeterministic)
	require.Len(t, result.Runs, 1)
	rr := result.Runs[0]
	assert.Equal(t, "run-2", rr.RunID)
	assert.Equal(t, rr.StoredHash, rr.ReplayedHash)
	assert.False(t, rr.KernelChanged)
}

func TestReplayDetectsCodeDrift(t *testing.T) {
	dbPath := seedRuns(t)
	forgeRun(t, dbPath, "run-1", "run-drift", func(r *ir.Run) {
		r.CodeHash = "0000000000000000000000000000000000000000000000000000000000000000"
	})

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "json"}), kernelsDir, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	assert.False(t, result.AllDeterministic)
	require.Len(t, result.Runs, 3)
	assert.True(t, result.Runs[0].Deterministic)
	assert.False(t, result.Runs[2].Deterministic)
	assert.False(t, result.Runs[2].KernelChanged)
}

func TestReplayDetectsChangedKernel(t *testing.T) {
	dbPath := seedRuns(t)
	forgeRun(t, dbPath, "run-2", "run-stale", func(r *ir.Run) {
		r.KernelHash = "stale"
	})

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), kernelsDir, "--db", dbPath, "--run", "run-stale")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: run-stale")
	assert.Contains(t, out, "kernel definition changed")
	assert.Contains(t, out, "✗ Determinism verification failed")
}

func TestReplayUnknownRun(t *testing.T) {
	dbPath := seedRuns(t)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), kernelsDir, "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run nope not found")
}

func TestReplayInvalidKernels(t *testing.T) {
	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}),
		invalidDir, "--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
