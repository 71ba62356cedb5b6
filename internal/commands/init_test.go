package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard-dev/spendguard/internal/categories"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "spendguard-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "spendguard")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/spendguard")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runSpendguard(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runSpendguard(t, "init", dir)
	require.NoError(t, err)

	for _, d := range []string{"rules", "logs", "statements"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runSpendguard(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "spendguard.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "large_amount_k: 3")
	assert.Contains(t, contents, "medium_cutoff: 0.33")
	assert.Contains(t, contents, "signature_retention: 10000")
}

func TestInit_CategoryRules(t *testing.T) {
	dir := t.TempDir()
	_, err := runSpendguard(t, "init", dir)
	require.NoError(t, err)

	svc, err := categories.Load(filepath.Join(dir, "rules", "category-rules.csv"))
	require.NoError(t, err)
	assert.Equal(t, "dining", svc.Categorize("blue bottle coffee"))
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runSpendguard(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".env")
}
