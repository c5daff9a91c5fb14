package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nercone/nyarchiver"
	"github.com/nercone/nyarchiver/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory to an empty temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("APPDATA", dir)
	return dir
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	return name
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, nyarchiver.Zip, cfg.DefaultFormat())
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	name := write(t, filepath.Join(t.TempDir(), "custom.toml"), `
format = "tar.zst"
verbose = true
temp_dir = "/var/tmp"
timeout = "30s"

[programs]
sevenzip = "7za"
`)
	cfg, err := config.Load(name)
	require.NoError(t, err)
	assert.Equal(t, "tar.zst", cfg.Format)
	assert.Equal(t, nyarchiver.TarZst, cfg.DefaultFormat())
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/var/tmp", cfg.TempDir)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "7za", cfg.Programs.SevenZip)
	assert.Equal(t, "unrar", cfg.Programs.Unrar)
}

func TestLoad_Dir(t *testing.T) {
	dir := isolate(t)
	cfgDir, err := config.Dir()
	require.NoError(t, err)
	if filepath.Dir(cfgDir) != dir {
		t.Skip("the config directory is not found using XDG_CONFIG_HOME on this platform")
	}
	write(t, filepath.Join(cfgDir, "config.toml"), `format = "7z"`)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, nyarchiver.Zip7, cfg.DefaultFormat())
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("NYARCHIVER_FORMAT", "tar.gz")
	t.Setenv("NYARCHIVER_PASSWORD", "secret")
	t.Setenv("NYARCHIVER_PROGRAMS_UNRAR", "/opt/rar/unrar")
	t.Setenv("NYARCHIVER_TIMEOUT", "1m")
	name := write(t, filepath.Join(t.TempDir(), "config.toml"), `format = "7z"`)
	cfg, err := config.Load(name)
	require.NoError(t, err)
	assert.Equal(t, "tar.gz", cfg.Format, "the environment overrides the file")
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "/opt/rar/unrar", cfg.Programs.Unrar)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	tests := map[string]string{
		"unknown format":    `format = "pak"`,
		"read only format":  `format = "rar"`,
		"negative timeout":  `timeout = "-1s"`,
		"zero timeout":      `timeout = "0s"`,
		"unparsable syntax": `format = `,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			file := write(t, filepath.Join(t.TempDir(), "config.toml"), content)
			_, err := config.Load(file)
			require.Error(t, err)
		})
	}
	file := write(t, filepath.Join(t.TempDir(), "config.toml"), `format = "rar"`)
	_, err = config.Load(file)
	require.ErrorIs(t, err, config.ErrInvalid)
}
