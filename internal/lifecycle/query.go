package lifecycle

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/Cognitive-Stack/mcphub/internal/procinfo"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

// UnknownUptime is reported when the process creation time is unreadable.
const UnknownUptime = "Unknown"

const zombieWarning = "Process is in zombie state"

// Info is a tracked instance refreshed from live OS state.
type Info struct {
	ID       string
	Instance *registry.Instance
	Uptime   string
}

// GetProcessInfo returns the entry tracking pid with status, ports and
// uptime refreshed from the OS. The registry is not modified.
func (m *Manager) GetProcessInfo(pid int) (*Info, bool) {
	id, stored, ok := m.reg.FindByPID(pid)
	if !ok {
		return nil, false
	}
	inst := stored.Clone()
	info := &Info{ID: id, Instance: inst, Uptime: UnknownUptime}

	state, err := m.inspector.State(pid)
	if err != nil {
		m.logger.Debug("reading process state failed", "pid", pid, "error", err)
	}
	switch state {
	case procinfo.Running:
		inst.Status = registry.StatusRunning
	case procinfo.Zombie:
		inst.Status = registry.StatusZombie
		inst.Warnings = append(inst.Warnings, zombieWarning)
	default:
		inst.Status = registry.StatusNotRunning
		return info, true
	}

	if !isStdioBridge(inst.Command) {
		if ports, err := m.inspector.ListeningPorts(pid); err == nil && len(ports) > 0 {
			inst.Ports = ports
		}
	}

	if created, err := m.inspector.CreateTime(pid); err == nil {
		info.Uptime = FormatUptime(m.now().Sub(created))
	}
	return info, true
}

// ListProcesses purges defunct entries and returns every remaining
// instance, ordered by name then first port.
func (m *Manager) ListProcesses() ([]Info, error) {
	removed, err := registry.PurgeDefunct(m.store, m.reg, m.owned)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		m.logger.Info("purged exited instances", "ids", removed)
	}

	var out []Info
	for _, id := range m.reg.IDs() {
		pid := m.reg[id].PID
		if pid <= 0 {
			continue
		}
		if info, ok := m.GetProcessInfo(pid); ok {
			out = append(out, *info)
		}
	}

	slices.SortStableFunc(out, func(a, b Info) int {
		if c := cmp.Compare(a.Instance.Name, b.Instance.Name); c != 0 {
			return c
		}
		return cmp.Compare(firstPort(a.Instance), firstPort(b.Instance))
	})
	return out, nil
}

// InstancesOf returns live instances of the named server.
func (m *Manager) InstancesOf(name string) ([]Info, error) {
	all, err := m.ListProcesses()
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, info := range all {
		if info.Instance.Name == name {
			out = append(out, info)
		}
	}
	return out, nil
}

func firstPort(inst *registry.Instance) int {
	if len(inst.Ports) == 0 {
		return 0
	}
	return inst.Ports[0]
}

// FormatUptime renders d as "HH:MM:SS", or "D days, HH:MM:SS" from one day
// on. Negative durations render as zero.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	h := (total % 86400) / 3600
	mi := (total % 3600) / 60
	s := total % 60
	if days > 0 {
		return fmt.Sprintf("%d days, %02d:%02d:%02d", days, h, mi, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, mi, s)
}
