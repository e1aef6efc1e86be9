package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindPortArg(t *testing.T) {
	tests := []struct {
		name         string
		argv         []string
		wantPort     int
		wantExplicit bool
		wantIndex    int
		wantInline   bool
	}{
		{"absent", []string{"node", "server.js"}, 0, false, 0, false},
		{"separate value", []string{"node", "--port", "4000"}, 4000, true, 1, false},
		{"inline value", []string{"node", "--port=4001"}, 4001, true, 1, true},
		{"first occurrence wins", []string{"x", "--port", "5000", "--port", "6000"}, 5000, true, 1, false},
		{"non numeric is absent", []string{"x", "--port", "abc"}, 0, false, 1, false},
		{"out of range is absent", []string{"x", "--port", "70000"}, 0, false, 1, false},
		{"flag without value", []string{"x", "--port"}, 0, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arg, port, explicit := findPortArg(tt.argv)
			assert.Equal(t, tt.wantExplicit, explicit)
			assert.Equal(t, tt.wantPort, port)
			if explicit {
				assert.Equal(t, tt.wantIndex, arg.index)
				assert.Equal(t, tt.wantInline, arg.inline)
			}
		})
	}
}

func TestPortArgRewrite(t *testing.T) {
	argv := []string{"x", "--port", "3000", "--port", "9"}
	arg, _, _ := findPortArg(argv)
	assert.Equal(t, []string{"x", "--port", "3001", "--port", "9"}, arg.rewrite(argv, 3001))

	inline := []string{"x", "--port=3000"}
	arg, _, _ = findPortArg(inline)
	assert.Equal(t, []string{"x", "--port=3002"}, arg.rewrite(inline, 3002))
}

func TestIsStdioBridge(t *testing.T) {
	assert.True(t, isStdioBridge([]string{"npx", "-y", "supergateway", "--stdio", "npx -y pkg", "--port", "3000"}))
	assert.True(t, isStdioBridge([]string{"gw", "--stdio=cmd"}))
	assert.False(t, isStdioBridge([]string{"node", "server.js", "--port", "3000"}))
	assert.False(t, isStdioBridge([]string{"echo", "--stdio-ish"}))
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root", "DEBUG=0"}
	got := mergeEnv(base, map[string]string{"DEBUG": "1", "API_TOKEN": "x"})

	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "API_TOKEN=x", "DEBUG=1"}, got)
	assert.Equal(t, []string{"PATH=/bin"}, mergeEnv([]string{"PATH=/bin"}, nil))
}
