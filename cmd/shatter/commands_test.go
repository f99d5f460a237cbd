package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shatter/internal/command"
	"github.com/Faultbox/shatter/internal/config"
)

const rowScene = `
name: Row
chunks:
  - name: root
    cluster: true
  - name: a
    parent: root
  - name: b
    parent: root
    translation: [1, 0, 0]
  - name: c
    parent: root
    translation: [2, 0, 0]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCLI parses args like main does and returns what the command printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := writeFile(t, "shatter.yaml", "logging:\n  level: warn\n")

	var cli CLI
	parser, err := newParser(&cli, kong.Exit(func(code int) { t.Fatalf("exit %d", code) }))
	require.NoError(t, err)
	kctx, err := parser.Parse(append([]string{"--config", cfgPath}, args...))
	if err != nil {
		return "", err
	}

	cfg, err := config.Load(cli.Config, cli.overrides())
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&env{ctx: context.Background(), cfg: cfg, out: &out})
	return out.String(), err
}

func TestTree(t *testing.T) {
	path := writeFile(t, "row.yaml", rowScene)

	out, err := runCLI(t, "tree", path)
	require.NoError(t, err)

	assert.Equal(t, "Row [0] clustered\n"+
		"  Row_000 [1] rigid geometry=0\n"+
		"  Row_001 [2] rigid geometry=1\n"+
		"  Row_002 [3] rigid geometry=2\n", out)
}

func TestProximity(t *testing.T) {
	path := writeFile(t, "row.yaml", rowScene)

	out, err := runCLI(t, "proximity", path)
	require.NoError(t, err)

	assert.Contains(t, out, "36 triangles")
	assert.Contains(t, out, "0 (Row_000): 1\n")
	assert.Contains(t, out, "1 (Row_001): 0 2\n")
	assert.Contains(t, out, "2 (Row_002): 1\n")
	assert.Contains(t, out, "0-1 face=")
	assert.Contains(t, out, "1-2 face=")
}

func TestAutocluster(t *testing.T) {
	path := writeFile(t, "row.yaml", rowScene)

	out, err := runCLI(t, "autocluster", path, "--mode", "distance", "--sites", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 candidates, 1 groups, 2 clusters\n")

	out, err = runCLI(t, "autocluster", path, "--sites", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped: 3 candidates at level 1, 9 sites requested\n")
}

func TestExec(t *testing.T) {
	path := writeFile(t, "row.yaml", rowScene)

	out, err := runCLI(t, "exec", path, "cluster", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "cluster: 2 changed, created [4]\n")
	assert.Contains(t, out, "  Row_000 [3] rigid geometry=2\n")

	out, err = runCLI(t, "exec", path, "update-proximity")
	require.NoError(t, err)
	assert.Contains(t, out, "update-proximity: 2 changed\n")
	assert.Contains(t, out, "1 (Row_001): 0 2\n")
}

func TestExecErrors(t *testing.T) {
	path := writeFile(t, "row.yaml", rowScene)

	_, err := runCLI(t, "exec", path, "shatter")
	assert.Error(t, err, "unknown kinds are rejected by the parser")

	_, err = runCLI(t, "exec", path, "delete", "0")
	assert.ErrorIs(t, err, command.ErrInvalidSelection)

	_, err = runCLI(t, "tree", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShowConfig(t *testing.T) {
	out, err := runCLI(t, "--workers", "3", "show-config")
	require.NoError(t, err)
	assert.Contains(t, out, "level: warn\n")
	assert.Contains(t, out, "workers: 3\n")
	assert.Contains(t, out, "mode: bounding_box\n")

	path := filepath.Join(t.TempDir(), "out", "shatter.yaml")
	out, err = runCLI(t, "show-config", "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	cfg, err := config.Load(path, config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
