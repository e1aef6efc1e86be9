package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Cognitive-Stack/mcphub/internal/backup"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
)

func TestConfigGet_Default(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "get", "default_port")
	require.NoError(t, err)
	assert.Equal(t, "3000\n", out)
}

func TestConfigGet_UnknownKey(t *testing.T) {
	isolate(t)

	_, err := execute(t, "config", "get", "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.FromError(err).Code)
}

func TestConfigSet_WritesFile(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "set", "default_port", "8000")
	require.NoError(t, err)
	assert.Equal(t, "Set default_port = 8000\n", out)

	path := filepath.Join(paths.ConfigDir(), "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 8000, got["default_port"])
	assert.Equal(t, "2s", got["grace_period"])

	out, err = execute(t, "config", "get", "default_port")
	require.NoError(t, err)
	assert.Equal(t, "8000\n", out)
}

func TestConfigSet_BacksUpPreviousFile(t *testing.T) {
	dataDir := isolate(t)

	_, err := execute(t, "config", "set", "default_port", "8000")
	require.NoError(t, err)
	assert.NoDirExists(t, backup.Dir(dataDir), "nothing to back up on first write")

	_, err = execute(t, "config", "set", "default_port", "9000")
	require.NoError(t, err)

	backups := backup.NewManager(backup.Dir(dataDir))
	manifest, err := backups.Latest(backup.KindConfig)
	require.NoError(t, err)
	assert.Equal(t, "before config set default_port", manifest.Reason)

	require.NoError(t, backups.Restore(backup.KindConfig, manifest.ID))
	out, err := execute(t, "config", "get", "default_port")
	require.NoError(t, err)
	assert.Equal(t, "8000\n", out)
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) {
	isolate(t)

	_, err := execute(t, "config", "set", "default_port", "70000")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(paths.ConfigDir(), "config.yaml"))

	_, err = execute(t, "config", "set", "grace_period", "soon")
	assert.Error(t, err)
}

func TestConfigList(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 100, got["max_port_attempts"])
	assert.Equal(t, "10ms", got["settle_delay"])
}

func TestConfigEdit_CreatesFile(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	t.Setenv("MCPHUB_EDITOR", "true")

	out, err := execute(t, "config", "edit")
	require.NoError(t, err)

	path := filepath.Join(paths.ConfigDir(), "config.yaml")
	assert.Contains(t, out, "Location: "+path)
	assert.FileExists(t, path)
}
