package lifecycle

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
)

// SpawnRequest describes a process to create.
type SpawnRequest struct {
	Argv []string
	// Env is the complete environment of the child.
	Env []string
	Dir string
	// LogFile receives stdout and stderr when set; otherwise output is
	// discarded.
	LogFile string
}

// Child is a process created by a Spawner.
type Child struct {
	PID int
	// Done is closed once the process has exited and been reaped. Nil when
	// the spawner does not track its children.
	Done <-chan struct{}
}

// Spawner creates OS processes.
type Spawner interface {
	Spawn(req SpawnRequest) (*Child, error)
}

// ExecSpawner starts processes with os/exec in their own process group so
// terminal interrupts reach only mcphub.
type ExecSpawner struct{}

// Spawn starts req and reaps the child in the background.
func (ExecSpawner) Spawn(req SpawnRequest) (*Child, error) {
	if len(req.Argv) == 0 {
		return nil, errors.Mark(errors.New("empty command"), errors.ErrSpawn)
	}

	cmd := exec.Command(req.Argv[0], req.Argv[1:]...) //nolint:gosec // running configured servers is the point
	cmd.Env = req.Env
	cmd.Dir = req.Dir
	detach(cmd)

	if req.LogFile != "" {
		if err := paths.EnsureDir(filepath.Dir(req.LogFile), 0); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "creating log directory"), errors.ErrSpawn)
		}
		out, err := os.OpenFile(req.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "opening instance log"), errors.ErrSpawn)
		}
		// the child holds its own descriptor after Start
		defer out.Close()
		cmd.Stdout = out
		cmd.Stderr = out
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.WithHintf(
			errors.Mark(errors.Wrapf(err, "exec %s", req.Argv[0]), errors.ErrSpawn),
			"check that %q is installed and on PATH", req.Argv[0],
		)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	return &Child{PID: cmd.Process.Pid, Done: done}, nil
}
