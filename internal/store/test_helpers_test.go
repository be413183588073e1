package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/ir"
)

// createTestStore opens a fresh journal in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRun(id string, requests int) ir.Run {
	return ir.Run{
		ID:            id,
		Flags:         []string{"trapping_math", "errno_math"},
		Target:        "{}",
		Requests:      requests,
		Folded:        requests,
		EngineVersion: ir.EngineVersion,
		TextVersion:   ir.TextVersion,
	}
}

// createTestRecord builds a folded sqrt record with a real digest and id.
func createTestRecord(t *testing.T, runID string, seq int64, arg string) ir.FoldRecord {
	t.Helper()
	args := []string{"ieee_double=" + arg}
	digest, err := ir.RequestDigest("sqrt", "ieee_double", args, []string{"trapping_math", "errno_math"})
	require.NoError(t, err)
	id, err := ir.FoldRecordID(runID, digest, seq)
	require.NoError(t, err)
	return ir.FoldRecord{
		ID:         id,
		RunID:      runID,
		Seq:        seq,
		Digest:     digest,
		Fn:         "sqrt",
		ResultType: "ieee_double",
		Args:       args,
		Status:     "folded",
		Result:     "ieee_double=2",
	}
}
