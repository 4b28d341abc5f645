package hyrcania

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "docker", cfg.Runtime)
	assert.Equal(t, 5*time.Second, cfg.RestartDelay.Duration)
	assert.Equal(t, []string{"data"}, cfg.Backup.Required)
	assert.Equal(t, "data", cfg.KnownPaths()[0])
	assert.Contains(t, cfg.KnownPaths(), "poetry.lock")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `
runtime = "podman"
ports = [9000]
restart_delay = "1500ms"

[backup]
optional = ["notebooks"]

[dropbox]
folder = "/lab/hyrcania"
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "podman", cfg.Runtime)
	assert.Equal(t, []int{9000}, cfg.Ports)
	assert.Equal(t, 1500*time.Millisecond, cfg.RestartDelay.Duration)
	assert.Equal(t, []string{"data", "notebooks"}, cfg.KnownPaths())
	assert.Equal(t, "/lab/hyrcania", cfg.Dropbox.Folder)
	assert.Equal(t, "docker-compose.yml", cfg.ComposeFile, "unset keys keep their defaults")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "runtime = \"podman\"\n")

	t.Setenv("HYRCANIA_RUNTIME", "nerdctl")
	t.Setenv("HYRCANIA_DROPBOX_TOKEN", "secret")
	t.Setenv("HYRCANIA_PROJECT_NAME", "olive")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "nerdctl", cfg.Runtime)
	assert.Equal(t, "secret", cfg.Dropbox.Token)
	assert.Equal(t, "olive", cfg.ProjectName)
}

func TestGetenv(t *testing.T) {
	t.Setenv("HYRCANIA_TEST_VALUE", "set")
	assert.Equal(t, "set", getenv("HYRCANIA_TEST_VALUE", "fallback"))

	t.Setenv("HYRCANIA_TEST_VALUE", "")
	assert.Equal(t, "fallback", getenv("HYRCANIA_TEST_VALUE", "fallback"))

	assert.Equal(t, "fallback", getenv("HYRCANIA_TEST_NEVER_SET", "fallback"))
}

func TestLoadConfigEnvUnset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "runtime = \"podman\"\n")

	t.Setenv("HYRCANIA_RUNTIME", "")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "podman", cfg.Runtime)
	assert.Equal(t, "/hyrcania", cfg.Dropbox.Folder)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "restart_delay = \"soon\"\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestConfigWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.ComposeFile = "compose.yaml"
	cfg.RestartDelay = Duration{2 * time.Second}

	require.NoError(t, cfg.Write(dir))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
