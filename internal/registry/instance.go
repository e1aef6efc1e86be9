package registry

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// Status is the lifecycle status of an instance.
type Status string

// Instance statuses.
const (
	StatusStarting   Status = "starting"
	StatusRunning    Status = "running"
	StatusNotRunning Status = "not_running"
	StatusZombie     Status = "zombie"
)

// Instance is one tracked server process.
type Instance struct {
	Name string
	// Command is the exact argument vector the process was started with.
	Command   []string
	StartTime time.Time
	// Env holds only the caller's overlay, not the inherited environment.
	Env map[string]string
	// PID is 0 when the process has not been spawned or the persisted value
	// was not a well-formed integer.
	PID      int
	Ports    []int
	Status   Status
	Warnings []string
	LogFile  string
}

// InstanceID returns the registry key for name on port.
func InstanceID(name string, port int) string {
	return name + ":" + strconv.Itoa(port)
}

// ID returns the registry key for the instance, using its first port.
func (i *Instance) ID() string {
	if len(i.Ports) == 0 {
		return i.Name
	}
	return InstanceID(i.Name, i.Ports[0])
}

// CommandLine returns the command joined with spaces.
func (i *Instance) CommandLine() string {
	return strings.Join(i.Command, " ")
}

// Clone returns a deep copy.
func (i *Instance) Clone() *Instance {
	c := *i
	c.Command = append([]string(nil), i.Command...)
	c.Ports = append([]int(nil), i.Ports...)
	c.Warnings = append([]string(nil), i.Warnings...)
	if i.Env != nil {
		c.Env = make(map[string]string, len(i.Env))
		for k, v := range i.Env {
			c.Env[k] = v
		}
	}
	return &c
}

type instanceJSON struct {
	Name      string            `json:"name"`
	Command   string            `json:"command"`
	Args      []string          `json:"args,omitempty"`
	StartTime string            `json:"start_time"`
	Env       map[string]string `json:"env"`
	PID       json.RawMessage   `json:"pid"`
	Ports     []int             `json:"ports"`
	Status    Status            `json:"status"`
	Warnings  []string          `json:"warnings"`
	LogFile   string            `json:"log_file,omitempty"`
}

// MarshalJSON writes the persisted shape: command as a single string plus
// the exact argv under "args", and pid as null when unset.
func (i Instance) MarshalJSON() ([]byte, error) {
	out := instanceJSON{
		Name:     i.Name,
		Command:  i.CommandLine(),
		Args:     i.Command,
		Env:      i.Env,
		PID:      json.RawMessage("null"),
		Ports:    i.Ports,
		Status:   i.Status,
		Warnings: i.Warnings,
		LogFile:  i.LogFile,
	}
	if !i.StartTime.IsZero() {
		out.StartTime = i.StartTime.Format(time.RFC3339Nano)
	}
	if i.PID > 0 {
		out.PID = json.RawMessage(strconv.Itoa(i.PID))
	}
	if out.Env == nil {
		out.Env = map[string]string{}
	}
	if out.Ports == nil {
		out.Ports = []int{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts records written by any mcphub version. A pid that is
// not an integer loads as 0, and start_time may omit the zone.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var in instanceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "decoding instance")
	}

	*i = Instance{
		Name:     in.Name,
		Command:  in.Args,
		Env:      in.Env,
		Ports:    in.Ports,
		Status:   in.Status,
		Warnings: in.Warnings,
		LogFile:  in.LogFile,
	}
	if len(i.Command) == 0 && in.Command != "" {
		i.Command = strings.Fields(in.Command)
	}
	i.PID = parsePID(in.PID)
	i.StartTime = parseTime(in.StartTime)
	return nil
}

func parsePID(raw json.RawMessage) int {
	var n int64
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil || n <= 0 || n > 1<<31-1 {
		return 0
	}
	return int(n)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
