package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/doctor"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

func TestDoctor_StaleEntryFixed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dataDir := isolate(t)
	t.Setenv("PATH", t.TempDir()) // no node or npx
	writeServers(t, sleeperServers)

	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	registryFile := filepath.Join(dataDir, "processes.json")
	require.NoError(t, os.WriteFile(registryFile,
		[]byte(`{"gone:3000": {"name": "gone", "command": "x", "pid": 999999, "ports": [3000]}}`), 0o644))

	out, err := execute(t, "doctor")
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.FromError(err).Code)
	assert.Contains(t, out, "process-registry")
	assert.Contains(t, out, "path-permissions")
	assert.Contains(t, out, "not on PATH: node, npx")

	out, _ = execute(t, "doctor", "--fix")
	assert.Contains(t, out, "fixed "+registryFile)

	info, err := os.Stat(registryFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	data, err := os.ReadFile(registryFile)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestDoctor_JSON(t *testing.T) {
	isolate(t)

	out, _ := execute(t, "doctor", "--json")

	var report doctor.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 4)
	assert.Equal(t, "servers-config", report.Results[1].Name)
	assert.Equal(t, 1, report.Summary.Info)
}
