package servers

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// Defaults for SSE mode.
const (
	DefaultSSEPath     = "/sse"
	DefaultMessagePath = "/message"
)

// RunOptions selects how a server is run.
type RunOptions struct {
	// SSE wraps the stdio server in supergateway.
	SSE bool
	// Port is passed to supergateway in SSE mode and as --port otherwise.
	// Zero leaves port selection to the lifecycle manager.
	Port        int
	BaseURL     string
	SSEPath     string
	MessagePath string
}

// StdioCommand returns the argv that runs the server over stdio, falling
// back to npx with the package name.
func (s *Server) StdioCommand() ([]string, error) {
	var argv []string
	if s.Command != "" {
		argv = append(argv, s.Command)
	}
	argv = append(argv, s.Args...)
	if len(argv) == 0 && s.PackageName != "" {
		argv = []string{"npx", "-y", s.PackageName}
	}
	if len(argv) == 0 {
		return nil, errors.Mark(
			errors.Newf("server %q has neither command nor package_name", s.Name),
			errors.ErrInvalidConfig,
		)
	}
	return argv, nil
}

// BuildCommand returns the argv to start s with opts.
func BuildCommand(s *Server, opts RunOptions) ([]string, error) {
	stdio, err := s.StdioCommand()
	if err != nil {
		return nil, err
	}

	if !opts.SSE {
		if opts.Port > 0 {
			stdio = append(stdio, "--port", strconv.Itoa(opts.Port))
		}
		return stdio, nil
	}

	ssePath := opts.SSEPath
	if ssePath == "" {
		ssePath = DefaultSSEPath
	}
	messagePath := opts.MessagePath
	if messagePath == "" {
		messagePath = DefaultMessagePath
	}

	argv := []string{"npx", "-y", "supergateway", "--stdio", strings.Join(stdio, " ")}
	if opts.Port > 0 {
		argv = append(argv, "--port", strconv.Itoa(opts.Port))
	}
	if opts.BaseURL != "" {
		argv = append(argv, "--baseUrl", opts.BaseURL)
	}
	return append(argv, "--ssePath", ssePath, "--messagePath", messagePath), nil
}

// SSEEndpoint returns the URL a client connects to for an SSE instance on
// port.
func SSEEndpoint(baseURL string, port int, ssePath string) string {
	if ssePath == "" {
		ssePath = DefaultSSEPath
	}
	if baseURL == "" {
		baseURL = "http://localhost:" + strconv.Itoa(port)
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ssePath, "/")
}

// EndpointFromArgs returns the SSE endpoint of a recorded supergateway
// command listening on port. ok is false for commands that are not
// supergateway bridges.
func EndpointFromArgs(argv []string, port int) (endpoint string, ok bool) {
	if !slices.Contains(argv, "supergateway") {
		return "", false
	}
	var baseURL, ssePath string
	for i := 0; i < len(argv)-1; i++ {
		switch argv[i] {
		case "--baseUrl":
			baseURL = argv[i+1]
		case "--ssePath":
			ssePath = argv[i+1]
		}
	}
	return SSEEndpoint(baseURL, port, ssePath), true
}
