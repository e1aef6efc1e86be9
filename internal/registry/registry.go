package registry

import (
	"maps"
	"slices"
)

// Registry maps instance ids to instances.
type Registry map[string]*Instance

// Put stores inst under id, replacing any previous entry.
func (r Registry) Put(id string, inst *Instance) {
	r[id] = inst
}

// Delete removes id and reports whether it was present.
func (r Registry) Delete(id string) bool {
	if _, ok := r[id]; !ok {
		return false
	}
	delete(r, id)
	return true
}

// FindByPID returns the entry tracking pid. Ids are scanned in sorted order
// so the result is deterministic.
func (r Registry) FindByPID(pid int) (string, *Instance, bool) {
	if pid <= 0 {
		return "", nil, false
	}
	for _, id := range r.IDs() {
		if r[id].PID == pid {
			return id, r[id], true
		}
	}
	return "", nil, false
}

// IDs returns all instance ids sorted.
func (r Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r))
}

// Clone returns a deep copy.
func (r Registry) Clone() Registry {
	c := make(Registry, len(r))
	for id, inst := range r {
		c[id] = inst.Clone()
	}
	return c
}

// AliveFunc reports whether the process recorded by inst is still running.
type AliveFunc func(inst *Instance) bool

// PurgeDefunct removes entries whose process is not alive, persisting the
// registry if anything was removed. It returns the removed ids sorted.
func PurgeDefunct(store Store, reg Registry, alive AliveFunc) ([]string, error) {
	var removed []string
	for _, id := range reg.IDs() {
		inst := reg[id]
		if inst.PID > 0 && alive(inst) {
			continue
		}
		delete(reg, id)
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := store.Save(reg); err != nil {
		return removed, err
	}
	return removed, nil
}
