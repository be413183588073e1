package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/engine"
	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/store"
)

// executeRoot runs the full command tree with args and returns what it
// wrote to stdout and stderr.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFile writes content to name inside a fresh temp dir and returns
// the file path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// journalRun folds reqs into a new database under run id runID and
// returns the database path.
func journalRun(t *testing.T, runID string, reqs ...engine.Request) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	eng := engine.New(
		engine.WithRunIDs(engine.NewFixedGenerator(runID)),
		engine.WithJournal(st),
	)
	_, err = eng.Run(context.Background(), reqs)
	require.NoError(t, err)
	return dbPath
}

// sampleRequests holds two calls that fold and one that does not.
func sampleRequests() []engine.Request {
	return []engine.Request{
		{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=4"}},
		{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=nan"}},
		{Fn: "clz", Type: "i32", Args: []string{"u32=1"}},
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "constfold", cmd.Use)
	assert.Contains(t, cmd.Long, "builtins")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"eval", "formats", "validate", "batch", "replay", "trace", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "trapping-math", "rounding-math", "errno-math", "signaling-nans", "unsafe-math"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestBatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	batchCmd, _, err := cmd.Find([]string{"batch"})
	require.NoError(t, err)

	maxFlag := batchCmd.Flags().Lookup("max-requests")
	require.NotNil(t, maxFlag)
	assert.Equal(t, "100000", maxFlag.DefValue)

	dbFlag := batchCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	_, _, err := executeRoot(t, "--format", "xml", "formats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestApplyFlagOverrides(t *testing.T) {
	dir := writeFile(t, "fold.cue", "package constfold\n\nflags: rounding_math: true\n")

	t.Run("config value kept without flag", func(t *testing.T) {
		out, _, err := executeRoot(t, "--config", filepath.Dir(dir), "eval", "sqrt", "ieee_double", "ieee_double=2")
		require.NoError(t, err)
		assert.Equal(t, "not folded\n", out)
	})

	t.Run("explicit flag overrides config", func(t *testing.T) {
		out, _, err := executeRoot(t, "--config", filepath.Dir(dir), "--rounding-math=false", "eval", "sqrt", "ieee_double", "ieee_double=2")
		require.NoError(t, err)
		assert.Equal(t, "ieee_double=1.4142135623730951\n", out)
	})
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(&RootOptions{}, buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	newLogger(&RootOptions{Verbose: true}, buf).Debug("detail", "fn", "sqrt")
	assert.Contains(t, buf.String(), "fn=sqrt")
}

func TestJournalRunHelper(t *testing.T) {
	dbPath := journalRun(t, "run-1", sampleRequests()...)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, run.Requests)
	assert.Equal(t, ir.TextVersion, run.TextVersion)
}
