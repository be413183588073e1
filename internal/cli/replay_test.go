package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/engine"
	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/store"
)

// writeForgedRun journals a run claiming clz(u32=1) is i32=30.
func writeForgedRun(t *testing.T, dbPath, runID string, requests int) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	flags := fold.DefaultFlags()
	require.NoError(t, st.WriteRun(ctx, ir.Run{
		ID:            runID,
		Flags:         flags.Names(),
		Target:        "{}",
		Requests:      requests,
		Folded:        1,
		EngineVersion: ir.EngineVersion,
		TextVersion:   ir.TextVersion,
	}))

	req := engine.Request{Fn: "clz", Type: "i32", Args: []string{"u32=1"}}
	digest, err := req.Digest(flags)
	require.NoError(t, err)
	id, err := ir.FoldRecordID(runID, digest, 1)
	require.NoError(t, err)
	require.NoError(t, st.WriteFoldRecords(ctx, []ir.FoldRecord{{
		ID:         id,
		RunID:      runID,
		Seq:        1,
		Digest:     digest,
		Fn:         req.Fn,
		ResultType: req.Type,
		Args:       req.Args,
		Status:     "folded",
		Result:     "i32=30",
	}}))
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayDatabaseNotFound(t *testing.T) {
	_, _, err := executeRoot(t, "replay", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := executeRoot(t, "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No runs found in database.\n", out)
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := journalRun(t, "run-1", sampleRequests()...)

	out, _, err := executeRoot(t, "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "✓ run-1: 3/3 records replayed\n\n✓ All 1 run(s) deterministic\n", out)
}

func TestReplayDeterministicJSON(t *testing.T) {
	dbPath := journalRun(t, "run-1", sampleRequests()...)

	out, _, err := executeRoot(t, "--format", "json", "replay", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, ReplayRunResult{
		RunID:         "run-1",
		Requests:      3,
		Replayed:      3,
		IsComplete:    true,
		Deterministic: true,
		Divergences:   []engine.Divergence{},
	}, resp.Data.Runs[0])
}

func TestReplayDivergence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	writeForgedRun(t, dbPath, "forged", 1)

	out, _, err := executeRoot(t, "replay", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "✗ forged: 1/1 records replayed\n"+
		"  [1] clz(u32=1): result differs\n"+
		"      recorded folded i32=30\n"+
		"      replayed folded i32=31\n"+
		"\n✗ Replay diverged from the journal\n", out)
}

func TestReplayDivergenceJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	writeForgedRun(t, dbPath, "forged", 1)

	out, _, err := executeRoot(t, "--format", "json", "replay", "--db", dbPath)
	require.Error(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_NONDETERMINISTIC", resp.Error.Code)
	require.Len(t, resp.Data.Runs, 1)
	require.Len(t, resp.Data.Runs[0].Divergences, 1)
	assert.Equal(t, "i32=31", resp.Data.Runs[0].Divergences[0].ReplayedResult)
}

func TestReplayIncompleteJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	writeForgedRun(t, dbPath, "partial", 2)

	out, _, err := executeRoot(t, "replay", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ partial: 1/2 records replayed, journal incomplete\n")
}

func TestReplayUnknownRun(t *testing.T) {
	dbPath := journalRun(t, "run-1", sampleRequests()...)

	_, _, err := executeRoot(t, "replay", "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "run not found: nope", err.Error())
}
