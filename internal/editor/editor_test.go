package editor

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvVar, "")
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")
}

func TestDetectEditor_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("VISUAL", "code")
	assert.Equal(t, "code", detectEditor())

	t.Setenv("EDITOR", "nvim")
	assert.Equal(t, "nvim", detectEditor())

	t.Setenv(EnvVar, "hx")
	assert.Equal(t, "hx", detectEditor())
}

func TestDetectEditor_BlankTreatedAsUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDITOR", "   ")
	t.Setenv("VISUAL", "vscode")
	assert.Equal(t, "vscode", detectEditor())
}

func TestDetectEditor_Fallback(t *testing.T) {
	clearEnv(t)
	want := "vi"
	if _, err := exec.LookPath("nano"); err == nil {
		want = "nano"
	}
	assert.Equal(t, want, detectEditor())
}

func TestOpen_PassesArgumentsAndPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as editor")
	}
	clearEnv(t)

	dir := t.TempDir()
	record := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "fake-editor.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+record+"\n"), 0o755))
	t.Setenv(EnvVar, script+" --wait")

	target := filepath.Join(dir, ".mcphub.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))

	var out bytes.Buffer
	require.NoError(t, Open(target, &out))
	assert.Equal(t, "Location: "+target+"\n", out.String())

	got, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "--wait "+target+"\n", string(got))
}

func TestOpen_MissingEditor(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvVar, "non-existent-editor-12345")

	err := Open("config.yaml", nil)
	assert.Error(t, err)
}
