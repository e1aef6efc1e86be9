// Package portalloc picks TCP ports for new server instances and detects
// ports already claimed by tracked instances.
//
// A port is considered available when a listener can be bound to it on the
// loopback interface. The answer can become stale before the child binds
// the port; callers accept that race.
package portalloc

import (
	"net"
	"strconv"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// DefaultHost is the interface probed for availability.
const DefaultHost = "127.0.0.1"

// ProbeFunc reports whether port can be bound on host.
type ProbeFunc func(host string, port int) bool

// Allocator finds free ports.
type Allocator struct {
	Host  string
	Probe ProbeFunc
}

// New returns an Allocator probing DefaultHost with real listeners.
func New() *Allocator {
	return &Allocator{Host: DefaultHost, Probe: ListenProbe}
}

// ListenProbe binds host:port and closes the listener immediately.
func ListenProbe(host string, port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// FindAvailablePort returns the first bindable port in
// [start, start+maxAttempts), never probing above MaxPort.
func (a *Allocator) FindAvailablePort(start, maxAttempts int) (int, error) {
	host, probe := a.Host, a.Probe
	if host == "" {
		host = DefaultHost
	}
	if probe == nil {
		probe = ListenProbe
	}
	if start < 1 {
		start = 1
	}

	for port := start; port < start+maxAttempts && port <= MaxPort; port++ {
		if probe(host, port) {
			return port, nil
		}
	}
	return 0, errors.WithHint(
		errors.Wrapf(errors.ErrPortExhausted, "tried %d ports from %d", maxAttempts, start),
		"stop unused servers with 'mcphub kill' or pass --port to choose another range",
	)
}

// CheckConflict returns the first tracked instance, in id order, that lists
// port and whose process is alive. Dead owners are not conflicts.
func CheckConflict(port int, reg registry.Registry, alive registry.AliveFunc) *registry.Instance {
	for _, id := range reg.IDs() {
		inst := reg[id]
		for _, p := range inst.Ports {
			if p == port && inst.PID > 0 && alive(inst) {
				return inst
			}
		}
	}
	return nil
}
