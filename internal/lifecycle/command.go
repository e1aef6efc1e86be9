package lifecycle

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	portFlag  = "--port"
	stdioFlag = "--stdio"
)

// portArg locates the port value inside an argument vector.
type portArg struct {
	index  int  // position of the flag
	inline bool // "--port=N" rather than "--port N"
}

// rewrite returns argv with the port value at a replaced by port.
func (a portArg) rewrite(argv []string, port int) []string {
	v := strconv.Itoa(port)
	if a.inline {
		argv[a.index] = portFlag + "=" + v
		return argv
	}
	if a.index+1 < len(argv) {
		argv[a.index+1] = v
		return argv
	}
	return append(argv, v)
}

// findPortArg returns the first --port argument of argv. A value that is not
// a valid port number counts as no port at all.
func findPortArg(argv []string) (portArg, int, bool) {
	for i, a := range argv {
		switch {
		case a == portFlag:
			if i+1 >= len(argv) {
				return portArg{}, 0, false
			}
			p, ok := parsePort(argv[i+1])
			return portArg{index: i}, p, ok
		case strings.HasPrefix(a, portFlag+"="):
			p, ok := parsePort(strings.TrimPrefix(a, portFlag+"="))
			return portArg{index: i, inline: true}, p, ok
		}
	}
	return portArg{}, 0, false
}

func parsePort(s string) (int, bool) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return 0, false
	}
	return p, true
}

// isStdioBridge reports whether argv tunnels a stdio server over a network
// port, in which case socket inspection of the bridge is not trusted.
func isStdioBridge(argv []string) bool {
	for _, a := range argv {
		if a == stdioFlag || strings.HasPrefix(a, stdioFlag+"=") {
			return true
		}
	}
	return false
}

// mergeEnv overlays env onto base ("KEY=value" entries). Keys from env
// replace base entries; the result is deterministic.
func mergeEnv(base []string, env map[string]string) []string {
	out := make([]string, 0, len(base)+len(env))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, overridden := env[k]; overridden {
			continue
		}
		out = append(out, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

func cloneEnv(env map[string]string) map[string]string {
	if env == nil {
		return map[string]string{}
	}
	return maps.Clone(env)
}
