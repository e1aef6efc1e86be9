package doctor

import (
	"fmt"

	"github.com/Cognitive-Stack/mcphub/internal/backup"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

// RegistryCheck loads the process registry and looks for entries whose
// process is gone. --fix purges them, and quarantines a corrupt registry
// when a backup manager is attached.
type RegistryCheck struct {
	store   registry.Store
	alive   registry.AliveFunc
	backups *backup.Manager

	reg     registry.Registry
	stale   []string
	corrupt bool
}

var (
	_ Check = (*RegistryCheck)(nil)
	_ Fixer = (*RegistryCheck)(nil)
)

// NewRegistryCheck checks the registry in store using alive to test entries.
func NewRegistryCheck(store registry.Store, alive registry.AliveFunc) *RegistryCheck {
	return &RegistryCheck{store: store, alive: alive}
}

// WithBackups lets Fix move a corrupt registry into a snapshot.
func (c *RegistryCheck) WithBackups(m *backup.Manager) *RegistryCheck {
	c.backups = m
	return c
}

// Name returns the unique identifier for this check.
func (c *RegistryCheck) Name() string {
	return "process-registry"
}

// Category returns the grouping for this check.
func (c *RegistryCheck) Category() string {
	return "registry"
}

// Run executes the registry check.
func (c *RegistryCheck) Run() *CheckResult {
	c.reg, c.stale, c.corrupt = nil, nil, false

	reg, err := c.store.Load()
	if err != nil {
		result := &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  err.Error(),
			Details:  map[string]any{"path": c.store.Path()},
			FixHint:  "move " + c.store.Path() + " aside; mcphub starts a new one",
		}
		switch {
		case !errors.Is(err, errors.ErrCorruptRegistry):
			result.FixHint = "check that " + c.store.Path() + " is readable"
		case c.backups != nil:
			c.corrupt = true
			result.Fixable = true
			result.FixHint = "run 'mcphub doctor --fix' to move it into " + c.backups.Root()
		}
		return result
	}
	c.reg = reg

	for _, id := range reg.IDs() {
		if inst := reg[id]; inst.PID <= 0 || !c.alive(inst) {
			c.stale = append(c.stale, id)
		}
	}

	details := map[string]any{
		"path":    c.store.Path(),
		"entries": len(reg),
		"live":    len(reg) - len(c.stale),
	}
	if len(c.stale) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("%d tracked instance(s), all running", len(reg)),
			Details:  details,
		}
	}

	details["stale"] = c.stale
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityWarning,
		Message:  fmt.Sprintf("%d of %d tracked instance(s) are no longer running", len(c.stale), len(reg)),
		Details:  details,
		Fixable:  true,
		FixHint:  "run 'mcphub ps' or 'mcphub doctor --fix' to drop them",
	}
}

// CanFix reports whether Run found stale entries or a corrupt registry.
func (c *RegistryCheck) CanFix() bool {
	return len(c.stale) > 0 || c.corrupt
}

// Fix removes the stale entries found by Run, or quarantines the corrupt
// registry file.
func (c *RegistryCheck) Fix() []FixResult {
	if c.corrupt {
		return c.quarantine()
	}

	removed, err := registry.PurgeDefunct(c.store, c.reg, c.alive)
	if err != nil {
		return []FixResult{{
			Path:        c.store.Path(),
			Description: "failed to purge stale entries",
			Error:       err,
		}}
	}
	c.stale = nil
	return []FixResult{{
		Path:        c.store.Path(),
		Fixed:       true,
		Description: fmt.Sprintf("removed %d stale registry entries", len(removed)),
	}}
}

func (c *RegistryCheck) quarantine() []FixResult {
	manifest, err := c.backups.Quarantine(backup.KindRegistry, "corrupt registry", c.store.Path())
	if err != nil {
		return []FixResult{{
			Path:        c.store.Path(),
			Description: "failed to quarantine corrupt registry",
			Error:       err,
		}}
	}
	c.corrupt = false
	return []FixResult{{
		Path:        c.store.Path(),
		Fixed:       true,
		Description: fmt.Sprintf("moved corrupt registry to backup %s", manifest.ID),
	}}
}
