package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCommand(cfg *routeConfig) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.IntVar(&cfg.K, "k", cfg.K, "")
	f.IntVar(&cfg.MaxPaths, "maxpaths", cfg.MaxPaths, "")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "")
	return cmd
}

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kpath.toml", `
topology = "abilene.txt"
k = 3
maxpaths = 50
overshoot = 10.5
seed = 9
`)
	cfg := defaultRouteConfig()
	cmd := newTestCommand(&cfg)
	require.NoError(t, cmd.Flags().Set("k", "7"))

	require.NoError(t, loadConfigFile(cmd, path, &cfg))

	assert.Equal(t, "abilene.txt", cfg.Topology)
	assert.Equal(t, "matrix.txt", cfg.Matrix) // not in the file
	assert.Equal(t, 7, cfg.K)                 // set on the command line
	assert.Equal(t, 50, cfg.MaxPaths)
	assert.Equal(t, 10.5, cfg.Overshoot)
	assert.Equal(t, int64(9), cfg.Seed)
}

func TestLoadConfigFile_errors(t *testing.T) {
	dir := t.TempDir()
	unknown := writeFile(t, dir, "unknown.toml", "kk = 3\n")
	invalid := writeFile(t, dir, "invalid.toml", "k = \"three\"\n")

	for _, path := range []string{unknown, invalid, filepath.Join(dir, "missing.toml")} {
		cfg := defaultRouteConfig()
		err := loadConfigFile(newTestCommand(&cfg), path, &cfg)
		assert.Error(t, err, "config file %s", path)
	}
}

func TestRunRoute(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultRouteConfig()
	cfg.Topology = writeFile(t, dir, "topology.txt", `N A
N B
N C
N D
l A B
l A C
l B D
l C D
`)
	cfg.Matrix = writeFile(t, dir, "matrix.txt", "A D 1\n")
	cfg.Digraph = true
	cfg.K = 2
	cfg.Seed = 1

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	require.NoError(t, runRoute(cmd, cfg, zap.NewNop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "Original link loads", lines[0])
	assert.Equal(t, "All the paths:", lines[5])
	assert.ElementsMatch(t, []string{"(A,D) : A B D", "(A,D) : A C D"}, lines[6:8])
	assert.Equal(t, "Link loads", lines[8])
	for _, l := range lines[9:] {
		assert.True(t, strings.HasSuffix(l, " = 0.5"), "line %q", l)
	}
}
