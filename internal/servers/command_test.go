package servers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

func TestBuildCommand(t *testing.T) {
	withCommand := &Server{Name: "fs", Command: "npx", Args: []string{"-y", "server-fs", "/tmp"}}
	withPackage := &Server{Name: "gh", PackageName: "@mcp/server-github"}

	tests := []struct {
		name   string
		server *Server
		opts   RunOptions
		want   []string
	}{
		{
			name:   "plain command",
			server: withCommand,
			want:   []string{"npx", "-y", "server-fs", "/tmp"},
		},
		{
			name:   "plain with port",
			server: withCommand,
			opts:   RunOptions{Port: 4000},
			want:   []string{"npx", "-y", "server-fs", "/tmp", "--port", "4000"},
		},
		{
			name:   "package fallback",
			server: withPackage,
			want:   []string{"npx", "-y", "@mcp/server-github"},
		},
		{
			name:   "sse defaults",
			server: withPackage,
			opts:   RunOptions{SSE: true, Port: 3000},
			want: []string{
				"npx", "-y", "supergateway",
				"--stdio", "npx -y @mcp/server-github",
				"--port", "3000",
				"--ssePath", "/sse", "--messagePath", "/message",
			},
		},
		{
			name:   "sse with base url and paths",
			server: withCommand,
			opts:   RunOptions{SSE: true, Port: 8000, BaseURL: "http://example.test:8000", SSEPath: "/events", MessagePath: "/msg"},
			want: []string{
				"npx", "-y", "supergateway",
				"--stdio", "npx -y server-fs /tmp",
				"--port", "8000",
				"--baseUrl", "http://example.test:8000",
				"--ssePath", "/events", "--messagePath", "/msg",
			},
		},
		{
			name:   "sse without port leaves allocation to the manager",
			server: withPackage,
			opts:   RunOptions{SSE: true},
			want: []string{
				"npx", "-y", "supergateway",
				"--stdio", "npx -y @mcp/server-github",
				"--ssePath", "/sse", "--messagePath", "/message",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCommand(tt.server, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildCommand_NothingToRun(t *testing.T) {
	_, err := BuildCommand(&Server{Name: "empty"}, RunOptions{})
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestSSEEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/sse", SSEEndpoint("", 3000, ""))
	assert.Equal(t, "http://example.test/events", SSEEndpoint("http://example.test/", 3000, "events"))
}

func TestEndpointFromArgs(t *testing.T) {
	argv, err := BuildCommand(&Server{Name: "fs", Command: "node", Args: []string{"fs.js"}}, RunOptions{
		SSE:     true,
		Port:    8000,
		SSEPath: "/events",
	})
	require.NoError(t, err)

	endpoint, ok := EndpointFromArgs(argv, 8000)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8000/events", endpoint)

	endpoint, ok = EndpointFromArgs([]string{"npx", "-y", "supergateway", "--baseUrl", "http://127.0.0.1:9000"}, 9000)
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:9000/sse", endpoint)

	_, ok = EndpointFromArgs([]string{"node", "server.js", "--port", "3000"}, 3000)
	assert.False(t, ok)
}
