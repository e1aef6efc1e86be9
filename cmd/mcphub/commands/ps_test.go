package commands

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

func sampleInfos() []lifecycle.Info {
	started := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	mk := func(name string, pid, port int, status registry.Status, warnings ...string) lifecycle.Info {
		inst := &registry.Instance{
			Name:      name,
			Command:   []string{"npx", "-y", "server", "--token", "ghp_secretvalue1234", "--port", "0"},
			StartTime: started,
			Env:       map[string]string{"API_KEY": "abcdef987654"},
			PID:       pid,
			Ports:     []int{port},
			Status:    status,
			Warnings:  warnings,
		}
		return lifecycle.Info{ID: inst.ID(), Instance: inst, Uptime: "1h 2m"}
	}
	return []lifecycle.Info{
		mk("github", 101, 3000, registry.StatusRunning),
		mk("github", 102, 3001, registry.StatusZombie, "Process is in zombie state"),
	}
}

func TestPS_NoInstancesPrintsNothing(t *testing.T) {
	isolate(t)

	out, err := execute(t, "ps")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWriteProcessTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProcesses(&buf, sampleInfos(), "table", false))
	out := buf.String()

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "#1 (:3000)")
	assert.Contains(t, out, "#2 (:3001)")
	assert.Contains(t, out, "2025-03-01 09:30:00")
	assert.Contains(t, out, "1h 2m")
	assert.Contains(t, out, "Warning: github (pid 102): Process is in zombie state")
	assert.Contains(t, out, "Running: 2 instance(s) of 1 server(s)")
	assert.NotContains(t, out, "ghp_secretvalue1234")
}

func TestWriteProcessTable_OneInstancePerServer(t *testing.T) {
	infos := sampleInfos()[:1]
	var buf bytes.Buffer
	require.NoError(t, writeProcesses(&buf, infos, "table", true))

	assert.Contains(t, buf.String(), "Running: 1 server(s)")
	assert.Contains(t, buf.String(), "ghp_secretvalue1234")
}

func TestWriteProcesses_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProcesses(&buf, sampleInfos(), "json", false))

	var got []psInstanceOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "github:3000", got[0].ID)
	assert.Equal(t, 101, got[0].PID)
	assert.Equal(t, []int{3000}, got[0].Ports)
	assert.Equal(t, "zombie", got[1].Status)
	assert.Equal(t, "****7654", got[0].Env["API_KEY"])
}

func TestWriteProcesses_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProcesses(&buf, sampleInfos(), "yaml", false))

	var got []psInstanceOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "github", got[1].Name)
}

func TestWriteProcesses_InvalidFormat(t *testing.T) {
	assert.Error(t, writeProcesses(&bytes.Buffer{}, nil, "xml", false))
}
