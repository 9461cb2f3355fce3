package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()
	require.Equal(t, "muton.sqlite", cfg.DB)
	require.Equal(t, time.Duration(0), cfg.Timeout)
	require.Equal(t, "info", cfg.LogLevel)
	require.True(t, cfg.LogColor)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, config.Defaults().DB, cfg.DB)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "muton.toml")
	contents := `
[general]
db = "custom.sqlite"
ignore_targets = ["vendor", "*_test.fc"]

[mutations]
slugs = ["ER", "BL"]

[test]
cmd = "make test"
timeout = 30

[[test.per_target]]
glob = "*contracts*"
cmd = "make test-contracts"
timeout = 60

[log]
level = "debug"
color = false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "custom.sqlite", cfg.DB)
	require.Equal(t, []string{"vendor", "*_test.fc"}, cfg.IgnoreTargets)
	require.Equal(t, []string{"ER", "BL"}, cfg.SlugAllowList)
	require.Equal(t, "make test", cfg.Command)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, "debug", cfg.LogLevel)
	require.False(t, cfg.LogColor)
	require.Len(t, cfg.Rules, 1)
	require.Equal(t, "make test-contracts", cfg.Rules[0].Command)
	require.Equal(t, 60, cfg.Rules[0].Timeout)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "muton.toml")
	require.NoError(t, os.WriteFile(path, []byte("[test]\ncmd = \"from file\"\n"), 0o644))

	t.Setenv("MUTON_TEST_CMD", "from env")
	t.Setenv("MUTON_LOG_LEVEL", "warn")
	t.Setenv("MUTON_IGNORE_TARGETS", "a,b, c")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "from env", cfg.Command)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, []string{"a", "b", "c"}, cfg.IgnoreTargets)
}

func TestResolveCommandPrefersMatchingTargetRule(t *testing.T) {
	cfg := config.Config{
		Command: "go test ./...",
		Timeout: 10 * time.Second,
		Rules: []config.TargetRule{
			{Glob: "*contracts*", Command: "make test-contracts", Timeout: 60},
		},
	}
	match := func(glob, path string) bool { return glob == "*contracts*" && path == "contracts/a.fc" }

	cmd, timeout := cfg.ResolveCommand("contracts/a.fc", match)
	require.Equal(t, "make test-contracts", cmd)
	require.Equal(t, time.Minute, timeout)

	cmd, timeout = cfg.ResolveCommand("other/a.fc", match)
	require.Equal(t, "go test ./...", cmd)
	require.Equal(t, 10*time.Second, timeout)
}
