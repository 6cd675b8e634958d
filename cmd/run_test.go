package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gnoswap-labs/cornelius/detect"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_nodes: 50\njobs: 3\n"), 0o644))
	cfgFile = path
	defer func() { cfgFile = "" }()

	cfg, err := loadConfig(flags(t, "--max-nodes=5", "--halt-on-error"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxNodes)
	assert.Equal(t, 3, cfg.Jobs, "unset flags keep the file value")
	assert.True(t, cfg.HaltOnError)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(flags(t))
	require.NoError(t, err)
	assert.Equal(t, detect.DefaultConfig(), cfg)

	_, err = loadConfig(flags(t, "--max-iterations=-2"))
	assert.Error(t, err)
}

func TestRunDetection(t *testing.T) {
	logger = zaptest.NewLogger(t)
	dir := t.TempDir()
	subject := filepath.Join(dir, "Calc.xml")
	require.NoError(t, os.WriteFile(subject, []byte(`<subjects>
  <subject method="Calc@sum(int,int)" sourcefile="Calc.java">
    <pid>2</pid>
    <mutant mid="7" pid="3"/>
  </subject>
  <id_table>
    <dedup_entry id="0" peg="3"/>
    <dedup_entry id="1" peg="4"/>
    <dedup_entry id="2" peg="(+ 0 1)"/>
    <dedup_entry id="3" peg="(+ 1 0)"/>
  </id_table>
</subjects>
`), 0o644))

	cfg := detect.DefaultConfig()
	cfg.OutputDir = filepath.Join(dir, "out")
	d, err := newDetector(cfg)
	require.NoError(t, err)

	require.NoError(t, runDetection(context.Background(), d, cfg, []string{subject}))
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Calc.xml.equiv-class"))
	require.NoError(t, err)
	assert.Equal(t, "0 7\n", string(data))

	err = runDetection(context.Background(), d, cfg, []string{filepath.Join(dir, "missing.xml")})
	assert.ErrorContains(t, err, "error accessing")
}
