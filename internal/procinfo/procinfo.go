package procinfo

import (
	"context"
	"os"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// State is the coarse OS state of a process.
type State int

// Process states reported by [Inspector.State].
const (
	Gone State = iota
	Running
	Zombie
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Zombie:
		return "zombie"
	default:
		return "gone"
	}
}

// Inspector reads and signals OS processes by pid.
type Inspector interface {
	// Alive reports whether a process with pid exists, zombies included.
	Alive(pid int) bool
	State(pid int) (State, error)
	CreateTime(pid int) (time.Time, error)
	// ListeningPorts returns the TCP ports in LISTEN state held by pid or
	// any of its descendants, sorted and unique.
	ListeningPorts(pid int) ([]int, error)
	// Descendants returns the pids below pid, parents before children.
	Descendants(pid int) ([]int, error)
	Terminate(pid int) error
	Kill(pid int) error
}

// System implements Inspector against the running OS.
type System struct {
	// Timeout bounds each query; zero means no bound.
	Timeout time.Duration
}

var _ Inspector = System{}

func (s System) ctx() (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), s.Timeout)
}

func (s System) open(ctx context.Context, pid int) (*process.Process, error) {
	if pid <= 0 {
		return nil, errors.Wrapf(errors.ErrProcessNotFound, "invalid pid %d", pid)
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid)) //nolint:gosec // pids fit in int32
	if err != nil {
		return nil, classify(err, pid)
	}
	return p, nil
}

// Alive reports whether pid exists. Processes owned by other users count as
// alive.
func (s System) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ctx, cancel := s.ctx()
	defer cancel()
	ok, err := process.PidExistsWithContext(ctx, int32(pid)) //nolint:gosec // pids fit in int32
	return err == nil && ok
}

// State reports whether pid is running, a zombie, or gone.
func (s System) State(pid int) (State, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	p, err := s.open(ctx, pid)
	if err != nil {
		if errors.Is(err, errors.ErrProcessNotFound) {
			return Gone, nil
		}
		return Gone, err
	}
	statuses, err := p.StatusWithContext(ctx)
	if err != nil {
		if errors.Is(classify(err, pid), errors.ErrProcessNotFound) {
			return Gone, nil
		}
		// status unreadable but the pid exists
		return Running, nil
	}
	if slices.Contains(statuses, process.Zombie) {
		return Zombie, nil
	}
	return Running, nil
}

// CreateTime returns when the OS created pid.
func (s System) CreateTime(pid int) (time.Time, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	p, err := s.open(ctx, pid)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, classify(err, pid)
	}
	return time.UnixMilli(ms), nil
}

// ListeningPorts returns TCP LISTEN ports of pid and its descendants.
func (s System) ListeningPorts(pid int) ([]int, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	p, err := s.open(ctx, pid)
	if err != nil {
		return nil, err
	}

	var ports []int
	for i, cur := range tree(ctx, p) {
		conns, err := cur.ConnectionsWithContext(ctx)
		if err != nil {
			if i == 0 {
				return nil, classify(err, pid)
			}
			continue
		}
		for _, c := range conns {
			if c.Status == "LISTEN" && c.Laddr.Port > 0 {
				ports = append(ports, int(c.Laddr.Port))
			}
		}
	}

	slices.Sort(ports)
	return slices.Compact(ports), nil
}

// Descendants returns every process below pid in breadth-first order.
func (s System) Descendants(pid int) ([]int, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	p, err := s.open(ctx, pid)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, cur := range tree(ctx, p)[1:] {
		pids = append(pids, int(cur.Pid))
	}
	return pids, nil
}

// tree returns root followed by its descendants, breadth first.
func tree(ctx context.Context, root *process.Process) []*process.Process {
	var out []*process.Process
	queue := []*process.Process{root}
	seen := map[int32]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.Pid] {
			continue
		}
		seen[cur.Pid] = true
		out = append(out, cur)

		// descendants that vanish mid-walk are skipped
		children, _ := cur.ChildrenWithContext(ctx)
		queue = append(queue, children...)
	}
	return out
}

// Terminate sends SIGTERM (or the platform equivalent).
func (s System) Terminate(pid int) error {
	ctx, cancel := s.ctx()
	defer cancel()

	p, err := s.open(ctx, pid)
	if err != nil {
		return err
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return classify(err, pid)
	}
	return nil
}

// Kill sends SIGKILL (or the platform equivalent).
func (s System) Kill(pid int) error {
	ctx, cancel := s.ctx()
	defer cancel()

	p, err := s.open(ctx, pid)
	if err != nil {
		return err
	}
	if err := p.KillWithContext(ctx); err != nil {
		return classify(err, pid)
	}
	return nil
}

// CreateTimeTolerance bounds the drift between a recorded start time and the
// OS creation time of the same process.
const CreateTimeTolerance = time.Second

// SameProcess reports whether pid is alive and is the process that was
// created at started. A zero started skips the identity check. A different
// creation time means the pid was recycled.
func SameProcess(in Inspector, pid int, started time.Time) bool {
	if pid <= 0 || !in.Alive(pid) {
		return false
	}
	if started.IsZero() {
		return true
	}
	created, err := in.CreateTime(pid)
	if err != nil {
		// unreadable creation time: trust liveness
		return !errors.Is(err, errors.ErrProcessNotFound)
	}
	d := created.Sub(started)
	return d <= CreateTimeTolerance && d >= -CreateTimeTolerance
}

// classify marks err with the process taxonomy sentinel it corresponds to.
func classify(err error, pid int) error {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, os.ErrProcessDone),
		errors.Is(err, os.ErrNotExist):
		return errors.Mark(errors.Wrapf(err, "pid %d", pid), errors.ErrProcessNotFound)
	case errors.Is(err, os.ErrPermission):
		return errors.WithHint(
			errors.Mark(errors.Wrapf(err, "pid %d", pid), errors.ErrPermissionDenied),
			"the process may belong to another user; try again with sudo",
		)
	default:
		return errors.Wrapf(err, "pid %d", pid)
	}
}
