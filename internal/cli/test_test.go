package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: bits
description: "clz and popcount"
cases:
  - fn: clz
    type: i32
    args: ["u32=1"]
    expect: "i32=31"
  - fn: popcount
    type: i32
    args: ["u32=255"]
    expect: "i32=8"
`

const failingScenario = `name: wrong
description: "a case with the wrong expectation"
cases:
  - fn: clz
    type: i32
    args: ["u32=1"]
    expect: "i32=30"
`

// writeScenarios writes files into a fresh directory and returns it.
func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTest_Passing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"bits.yaml": passingScenario})

	out, _, err := executeRoot(t, "test", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ bits\n\nTest Summary: 1 passed, 0 failed, 1 total\n✓ All scenarios passed\n", out)
}

func TestTest_Failing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"bits.yaml":  passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, _, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong\n  case 0 (clz): expected i32=30, got i32=31\n")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total\n")
}

func TestTest_JSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"bits.yaml":  passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, _, err := executeRoot(t, "--format", "json", "test", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, []ScenarioResult{
		{Name: "bits", Pass: true},
		{Name: "wrong", Pass: false, Errors: []string{"case 0 (clz): expected i32=30, got i32=31"}},
	}, resp.Data.Scenarios)
}

func TestTest_UpdateThenCompareGolden(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"bits.yaml": passingScenario})

	out, _, err := executeRoot(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bits (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "bits.golden")
	require.FileExists(t, goldenPath)

	_, _, err = executeRoot(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"trace":[]}`), 0o644))
	out, _, err = executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"bits.yaml":  passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, _, err := executeRoot(t, "test", dir, "--filter", "bi*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "wrong")
}

func TestTest_BadScenario(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, _, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml\n  failed to load scenario:")
}

func TestTest_NoScenarios(t *testing.T) {
	out, _, err := executeRoot(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := executeRoot(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_HarnessScenarios(t *testing.T) {
	out, _, err := executeRoot(t, "test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
}

func TestFindScenarioFiles_SkipsGolden(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"a.yaml": passingScenario, "notes.txt": "x"})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "b.yaml"), []byte("x"), 0o644))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}
