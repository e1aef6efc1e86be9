package doctor

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/backup"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

func TestPathPermissionCheck_PassAndSkipMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o700))
	file := filepath.Join(dir, "processes.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	c := NewPathPermissionCheck(
		PathSpec{Path: dir, Dir: true, Private: true},
		PathSpec{Path: file, Private: true},
		PathSpec{Path: filepath.Join(dir, "missing.json")},
	)
	result := c.Run()
	assert.Equal(t, SeverityPass, result.Status)
	assert.Equal(t, "all 2 paths have valid permissions", result.Message)
	assert.False(t, c.CanFix())
}

func TestPathPermissionCheck_FixesLoosePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "processes.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))
	require.NoError(t, os.Chmod(file, 0o644))
	shared := filepath.Join(dir, ".mcphub.json")
	require.NoError(t, os.WriteFile(shared, []byte("{}"), 0o600))
	require.NoError(t, os.Chmod(shared, 0o666))

	c := NewPathPermissionCheck(PathSpec{Path: file, Private: true}, PathSpec{Path: shared})
	result := c.Run()
	assert.Equal(t, SeverityWarning, result.Status)
	assert.True(t, result.Fixable)
	assert.Equal(t, 2, c.CountFixable())

	fixes := c.Fix()
	require.Len(t, fixes, 2)
	for _, f := range fixes {
		assert.True(t, f.Fixed, f.Description)
	}

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	info, err = os.Stat(shared)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	assert.Equal(t, SeverityPass, c.Run().Status)
}

func TestPathPermissionCheck_WrongKind(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	result := NewPathPermissionCheck(PathSpec{Path: file, Dir: true}).Run()
	assert.Equal(t, SeverityError, result.Status)
}

func TestConfigSyntaxCheck(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	t.Run("none found", func(t *testing.T) {
		result := NewConfigSyntaxCheck(filepath.Join(dir, "absent.json")).Run()
		assert.Equal(t, SeverityInfo, result.Status)
	})

	t.Run("valid", func(t *testing.T) {
		p := write("ok.json", `{"mcpServers": {"fs": {"command": "node", "args": ["fs.js"]}}}`)
		result := NewConfigSyntaxCheck(p).Run()
		assert.Equal(t, SeverityPass, result.Status, result.Message)
		assert.Equal(t, p, result.Details["active"])
	})

	t.Run("json syntax error has position", func(t *testing.T) {
		p := write("bad.json", "{\n  \"mcpServers\": {,\n}")
		result := NewConfigSyntaxCheck(p).Run()
		require.Equal(t, SeverityError, result.Status)
		files := result.Details["files"].([]syntaxFileResult)
		assert.Contains(t, files[0].Message, "line 2")
	})

	t.Run("toml syntax error", func(t *testing.T) {
		p := write("bad.toml", "[mcpServers\n")
		result := NewConfigSyntaxCheck(p).Run()
		require.Equal(t, SeverityError, result.Status)
		files := result.Details["files"].([]syntaxFileResult)
		assert.Contains(t, files[0].Message, "TOML syntax error at line 1")
	})

	t.Run("server without command", func(t *testing.T) {
		p := write("empty.json", `{"mcpServers": {"ghost": {"description": "nothing to run"}}}`)
		result := NewConfigSyntaxCheck(p).Run()
		assert.Equal(t, SeverityWarning, result.Status)
	})
}

func TestOffsetToLineCol(t *testing.T) {
	data := []byte("ab\ncd\nef")
	line, col := offsetToLineCol(data, 4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)

	line, col = offsetToLineCol(data, 100)
	assert.Equal(t, 3, line)
	assert.Equal(t, 3, col)
}

func TestRegistryCheck_StaleEntriesFixed(t *testing.T) {
	store := registry.NewMemoryStore(registry.Registry{
		"live:3000": {Name: "live", PID: 100, Ports: []int{3000}},
		"dead:3001": {Name: "dead", PID: 200, Ports: []int{3001}},
		"null:3002": {Name: "null", PID: 0, Ports: []int{3002}},
	})
	alive := func(inst *registry.Instance) bool { return inst.PID == 100 }

	c := NewRegistryCheck(store, alive)
	result := c.Run()
	assert.Equal(t, SeverityWarning, result.Status)
	assert.Equal(t, []string{"dead:3001", "null:3002"}, result.Details["stale"])
	require.True(t, c.CanFix())

	fixes := c.Fix()
	require.Len(t, fixes, 1)
	assert.True(t, fixes[0].Fixed)

	reg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"live:3000"}, reg.IDs())
	assert.Equal(t, SeverityPass, c.Run().Status)
}

func TestRegistryCheck_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	c := NewRegistryCheck(registry.NewFileStore(path), func(*registry.Instance) bool { return true })
	result := c.Run()
	assert.Equal(t, SeverityError, result.Status)
	assert.Contains(t, result.FixHint, "move")
	assert.False(t, c.CanFix())
}

func TestRegistryCheck_CorruptQuarantined(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	backups := backup.NewManager(t.TempDir())

	c := NewRegistryCheck(registry.NewFileStore(path), func(*registry.Instance) bool { return true }).WithBackups(backups)
	result := c.Run()
	assert.Equal(t, SeverityError, result.Status)
	assert.True(t, result.Fixable)
	require.True(t, c.CanFix())

	fixes := c.Fix()
	require.Len(t, fixes, 1)
	require.NoError(t, fixes[0].Error)
	assert.True(t, fixes[0].Fixed)
	assert.NoFileExists(t, path)

	manifest, err := backups.Latest(backup.KindRegistry)
	require.NoError(t, err)
	assert.Equal(t, "corrupt registry", manifest.Reason)
	assert.Equal(t, path, manifest.Files[0].OriginalPath)

	assert.Equal(t, SeverityPass, c.Run().Status, "missing registry loads as empty")
}

func TestToolCheck(t *testing.T) {
	c := NewToolCheck("node", "npx")
	c.lookPath = func(name string) (string, error) {
		if name == "node" {
			return "/usr/bin/node", nil
		}
		return "", exec.ErrNotFound
	}

	result := c.Run()
	assert.Equal(t, SeverityWarning, result.Status)
	assert.Equal(t, "not on PATH: npx", result.Message)

	c.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	assert.Equal(t, SeverityPass, c.Run().Status)
}
