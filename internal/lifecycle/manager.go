package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/portalloc"
	"github.com/Cognitive-Stack/mcphub/internal/procinfo"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

// Defaults applied by New.
const (
	DefaultPort            = 3000
	DefaultMaxPortAttempts = 100
	DefaultGracePeriod     = 5 * time.Second
	DefaultSettleDelay     = time.Second
	DefaultPollInterval    = 50 * time.Millisecond
)

// Manager owns the registry for one invocation.
type Manager struct {
	store     registry.Store
	reg       registry.Registry
	inspector procinfo.Inspector
	alloc     *portalloc.Allocator
	spawner   Spawner
	logger    *slog.Logger

	defaultPort  int
	maxAttempts  int
	gracePeriod  time.Duration
	settleDelay  time.Duration
	pollInterval time.Duration
	logDir       string
	baseEnv      []string
	now          func() time.Time

	// children started by this Manager, closed once reaped
	children map[int]<-chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithInspector sets the OS process inspector.
func WithInspector(in procinfo.Inspector) Option {
	return func(m *Manager) { m.inspector = in }
}

// WithAllocator sets the port allocator.
func WithAllocator(a *portalloc.Allocator) Option {
	return func(m *Manager) { m.alloc = a }
}

// WithSpawner sets how child processes are created.
func WithSpawner(s Spawner) Option {
	return func(m *Manager) { m.spawner = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDefaultPort sets the first port probed when a command has no --port.
func WithDefaultPort(port int) Option {
	return func(m *Manager) {
		if port > 0 {
			m.defaultPort = port
		}
	}
}

// WithMaxPortAttempts bounds each port search.
func WithMaxPortAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithGracePeriod sets the wait between SIGTERM and SIGKILL.
func WithGracePeriod(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.gracePeriod = d
		}
	}
}

// WithSettleDelay sets the pause after spawn before ports are inspected.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.settleDelay = d
		}
	}
}

// WithPollInterval sets how often liveness is polled while waiting.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithLogDir sets where instance stdout/stderr logs are written. An empty
// dir discards child output.
func WithLogDir(dir string) Option {
	return func(m *Manager) { m.logDir = dir }
}

// WithBaseEnv sets the environment the per-instance overlay is applied to.
func WithBaseEnv(env []string) Option {
	return func(m *Manager) { m.baseEnv = env }
}

// WithClock sets the time source used for uptime.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New loads the registry from store and returns a Manager. A corrupt
// registry fails construction.
func New(store registry.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("lifecycle: store is required")
	}

	m := &Manager{
		store:        store,
		inspector:    procinfo.System{Timeout: 5 * time.Second},
		alloc:        portalloc.New(),
		spawner:      ExecSpawner{},
		logger:       slog.Default(),
		defaultPort:  DefaultPort,
		maxAttempts:  DefaultMaxPortAttempts,
		gracePeriod:  DefaultGracePeriod,
		settleDelay:  DefaultSettleDelay,
		pollInterval: DefaultPollInterval,
		baseEnv:      os.Environ(),
		now:          time.Now,
		children:     map[int]<-chan struct{}{},
	}
	for _, opt := range opts {
		opt(m)
	}

	reg, err := store.Load()
	if err != nil {
		return nil, err
	}
	m.reg = reg
	return m, nil
}

// StartOption adjusts a single Start call.
type StartOption func(*SpawnRequest)

// WithDir runs the process in dir.
func WithDir(dir string) StartOption {
	return func(r *SpawnRequest) { r.Dir = dir }
}

// Start spawns command as a tracked instance of name and returns its pid.
//
// The command gets a --port argument if it has none. When the port belongs
// to another live tracked instance a higher free port is chosen and the
// argument rewritten. The caller's slice is not modified.
func (m *Manager) Start(ctx context.Context, name string, command []string, env map[string]string, opts ...StartOption) (int, error) {
	if name == "" {
		return 0, errors.New("server name is required")
	}
	if len(command) == 0 {
		return 0, errors.Newf("no command given for %s", name)
	}

	argv := slices.Clone(command)
	arg, port, explicit := findPortArg(argv)
	if !explicit {
		p, err := m.alloc.FindAvailablePort(m.defaultPort, m.maxAttempts)
		if err != nil {
			return 0, err
		}
		port = p
		argv = append(argv, portFlag, strconv.Itoa(port))
		arg = portArg{index: len(argv) - 2}
	}

	for attempts := 0; ; attempts++ {
		owner := portalloc.CheckConflict(port, m.reg, m.owned)
		if owner == nil {
			break
		}
		if attempts >= m.maxAttempts {
			return 0, errors.Wrapf(errors.ErrPortExhausted, "every port from %d is tracked by a live instance", port)
		}
		next, err := m.alloc.FindAvailablePort(port+1, m.maxAttempts)
		if err != nil {
			return 0, err
		}
		m.logger.Warn("port already used by a running instance",
			"port", port, "owner", owner.Name, "owner_pid", owner.PID, "new_port", next)
		port = next
		argv = arg.rewrite(argv, port)
	}

	inst := &registry.Instance{
		Name:     name,
		Command:  argv,
		Env:      cloneEnv(env),
		Status:   registry.StatusStarting,
		Ports:    []int{},
		Warnings: []string{},
	}

	req := SpawnRequest{
		Argv: argv,
		Env:  mergeEnv(m.baseEnv, env),
	}
	if m.logDir != "" {
		req.LogFile = filepath.Join(m.logDir, name+"-"+strconv.Itoa(port)+".log")
	}
	for _, opt := range opts {
		opt(&req)
	}

	m.logger.Debug("spawning server", "name", name, "command", argv, "env", env)
	child, err := m.spawner.Spawn(req)
	if err != nil {
		if !errors.Is(err, errors.ErrSpawn) {
			err = errors.Mark(err, errors.ErrSpawn)
		}
		return 0, errors.Wrapf(err, "starting %s", name)
	}
	if child.Done != nil {
		m.children[child.PID] = child.Done
	}

	inst.PID = child.PID
	inst.Status = registry.StatusRunning
	inst.LogFile = req.LogFile
	inst.StartTime = m.now()
	if created, err := m.inspector.CreateTime(child.PID); err == nil {
		inst.StartTime = created
	}

	m.settle(ctx)
	m.attributePorts(inst, port)

	id := registry.InstanceID(name, port)
	m.reg.Put(id, inst)
	if err := m.store.Save(m.reg); err != nil {
		// an untracked server could never be stopped by mcphub
		_ = m.inspector.Kill(child.PID)
		m.reg.Delete(id)
		return 0, err
	}

	m.logger.Info("server started", "id", id, "pid", child.PID, "ports", inst.Ports)
	for _, w := range inst.Warnings {
		m.logger.Warn(w, "id", id)
	}
	return child.PID, nil
}

// settle waits for the child to bind its socket, returning early on
// cancellation.
func (m *Manager) settle(ctx context.Context) {
	if m.settleDelay <= 0 {
		return
	}
	t := time.NewTimer(m.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// attributePorts records the ports of a freshly spawned instance. The chosen
// port is always kept so conflict detection covers children that bind late.
func (m *Manager) attributePorts(inst *registry.Instance, port int) {
	inst.Ports = []int{port}
	if isStdioBridge(inst.Command) {
		return
	}

	discovered, err := m.inspector.ListeningPorts(inst.PID)
	if err != nil {
		m.logger.Debug("listing sockets failed", "pid", inst.PID, "error", err)
	}
	for _, p := range discovered {
		if !slices.Contains(inst.Ports, p) {
			inst.Ports = append(inst.Ports, p)
		}
	}
	if !slices.Contains(discovered, port) {
		inst.Warnings = append(inst.Warnings, portWarning(port))
	}
}

func portWarning(port int) string {
	return "Port " + strconv.Itoa(port) + " is not available. The process may not be running correctly."
}

// Stop gracefully stops pid and every process below it, then removes the
// registry entry tracking pid if there is one.
//
// It returns false when no live process was found for pid. A tracked entry
// whose process is gone, or whose pid now belongs to another process, is
// dropped without signalling anything.
func (m *Manager) Stop(ctx context.Context, pid int) (bool, error) {
	id, inst, tracked := m.reg.FindByPID(pid)
	if tracked && !m.owned(inst) {
		return false, m.remove(id, "process already exited")
	}
	if !tracked && !m.inspector.Alive(pid) {
		return false, nil
	}

	descendants := m.descendants(pid)
	if err := m.inspector.Terminate(pid); err != nil {
		if !errors.Is(err, errors.ErrProcessNotFound) {
			return false, errors.Wrapf(err, "stopping pid %d", pid)
		}
		m.signalTree(descendants, m.inspector.Terminate)
		m.reapTree(ctx, descendants)
		if !tracked {
			return false, nil
		}
		return false, m.remove(id, "process exited before SIGTERM")
	}
	m.signalTree(descendants, m.inspector.Terminate)

	if !m.waitExit(ctx, pid, m.gracePeriod) {
		m.logger.Info("grace period expired, killing", "pid", pid, "grace", m.gracePeriod)
		if err := m.inspector.Kill(pid); err != nil && !errors.Is(err, errors.ErrProcessNotFound) {
			return false, errors.Wrapf(err, "killing pid %d", pid)
		}
		// our own child is reaped by its waiter; give it a moment
		m.waitExit(context.Background(), pid, m.gracePeriod)
	}
	m.reapTree(ctx, descendants)

	if !tracked {
		return true, nil
	}
	return true, m.remove(id, "stopped")
}

// owned reports whether the process recorded by inst is still the one
// running under its pid.
func (m *Manager) owned(inst *registry.Instance) bool {
	return procinfo.SameProcess(m.inspector, inst.PID, inst.StartTime)
}

// Tracked returns the liveness test the manager applies to registry entries.
func Tracked(in procinfo.Inspector) registry.AliveFunc {
	return func(inst *registry.Instance) bool {
		return procinfo.SameProcess(in, inst.PID, inst.StartTime)
	}
}

// descendants lists the process tree below pid. Launchers such as sh -c
// and npx keep the server in a child, so signals must reach the whole tree.
func (m *Manager) descendants(pid int) []int {
	pids, err := m.inspector.Descendants(pid)
	if err != nil {
		m.logger.Debug("listing descendants", "pid", pid, "error", err)
		return nil
	}
	return pids
}

// signalTree signals pids deepest first so parents cannot respawn children.
func (m *Manager) signalTree(pids []int, signal func(pid int) error) {
	for _, pid := range slices.Backward(pids) {
		if err := signal(pid); err != nil && !errors.Is(err, errors.ErrProcessNotFound) {
			m.logger.Debug("signalling descendant", "pid", pid, "error", err)
		}
	}
}

// reapTree waits up to the grace period for descendants of a stopped
// process to exit and kills the ones still running.
func (m *Manager) reapTree(ctx context.Context, pids []int) {
	if len(pids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.gracePeriod)
	defer cancel()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	running := slices.Clone(pids)
	for {
		running = slices.DeleteFunc(running, func(pid int) bool {
			st, err := m.inspector.State(pid)
			return err == nil && st != procinfo.Running
		})
		if len(running) == 0 {
			return
		}
		select {
		case <-ctx.Done():
			m.logger.Info("killing leftover descendants", "pids", running)
			m.signalTree(running, m.inspector.Kill)
			return
		case <-ticker.C:
		}
	}
}

// waitExit reports whether pid exited within timeout. Zombies count as
// exited.
func (m *Manager) waitExit(ctx context.Context, pid int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return m.Wait(ctx, pid) == nil
}

func (m *Manager) remove(id, reason string) error {
	m.reg.Delete(id)
	m.logger.Debug("removing registry entry", "id", id, "reason", reason)
	return m.store.Save(m.reg)
}

// ForceKill sends SIGKILL to pid and its descendants immediately. The
// registry is not changed; call Forget afterwards to drop the entry.
func (m *Manager) ForceKill(pid int) error {
	m.signalTree(m.descendants(pid), m.inspector.Kill)
	if err := m.inspector.Kill(pid); err != nil {
		return errors.Wrapf(err, "killing pid %d", pid)
	}
	m.logger.Info("sent SIGKILL", "pid", pid)
	return nil
}

// Forget drops the entry tracking pid without signalling it.
func (m *Manager) Forget(pid int) (bool, error) {
	id, _, ok := m.reg.FindByPID(pid)
	if !ok {
		return false, nil
	}
	return true, m.remove(id, "forgotten")
}

// StopAll stops every tracked instance and returns how many were stopped.
// All instances are attempted; the first error is returned.
func (m *Manager) StopAll(ctx context.Context) (int, error) {
	var pids []int
	for _, id := range m.reg.IDs() {
		if pid := m.reg[id].PID; pid > 0 {
			pids = append(pids, pid)
		}
	}

	stopped := 0
	var firstErr error
	for _, pid := range pids {
		ok, err := m.Stop(ctx, pid)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ok {
			stopped++
		}
	}

	// entries without a usable pid can never be stopped
	if _, err := registry.PurgeDefunct(m.store, m.reg, m.owned); err != nil && firstErr == nil {
		firstErr = err
	}
	return stopped, firstErr
}

// Wait blocks until pid exits or ctx is done.
func (m *Manager) Wait(ctx context.Context, pid int) error {
	if done, ok := m.children[pid]; ok {
		// an exited child wins over a cancelled ctx
		select {
		case <-done:
			return nil
		default:
		}
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		if st, err := m.inspector.State(pid); err == nil && st != procinfo.Running {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Registry returns a copy of the loaded registry.
func (m *Manager) Registry() registry.Registry {
	return m.reg.Clone()
}

// StorePath returns where the registry is persisted.
func (m *Manager) StorePath() string {
	return m.store.Path()
}
