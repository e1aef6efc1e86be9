// Package probe checks that an SSE-mode MCP server answers the protocol,
// not just that its process is alive.
package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// DefaultTimeout bounds a probe when the caller passes zero.
const DefaultTimeout = 3 * time.Second

// ErrUnreachable marks probe failures.
var ErrUnreachable = errors.New("MCP server unreachable")

// ClientName identifies mcphub to probed servers.
var ClientName = "mcphub-probe"

// ClientVersion is reported alongside ClientName; set from the build version.
var ClientVersion = "dev"

// PingSSE connects to endpoint over SSE, performs the MCP handshake and a
// ping, and returns the round trip of the ping.
func PingSSE(ctx context.Context, endpoint string, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: ClientName, Version: ClientVersion}, nil)
	transport := &mcp.SSEClientTransport{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "connecting to %s", endpoint), ErrUnreachable)
	}
	defer session.Close()

	start := time.Now()
	if err := session.Ping(ctx, nil); err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "pinging %s", endpoint), ErrUnreachable)
	}
	return time.Since(start), nil
}
