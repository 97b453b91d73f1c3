package statusrpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

const (
	dialTimeout         = 5 * time.Second
	responseReadTimeout = 45 * time.Second
)

// Client is a connection bound to one session.
// The SessionID of reports passed to it is ignored.
type Client struct {
	conn    net.Conn
	session string
	mu      sync.Mutex
}

// Ensure Client implements domain.StatusReporter interface.
var _ domain.StatusReporter = (*Client)(nil)

// Dial connects to the service and binds the connection to sessionID.
func Dial(ctx context.Context, socketPath, sessionID string) (*Client, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	c := &Client{conn: conn, session: sessionID}
	if err := c.call(ctx, Request{Action: ActionHello, Session: sessionID}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// Session returns the session the connection is bound to.
func (c *Client) Session() string {
	return c.session
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(responseReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)

	if err := WriteFrame(c.conn, req); err != nil {
		return fmt.Errorf("send %s: %w", req.Action, err)
	}
	var resp Response
	if err := ReadFrame(c.conn, &resp); err != nil {
		return fmt.Errorf("read %s response: %w", req.Action, err)
	}
	if !resp.OK {
		return &Error{Action: req.Action, Message: resp.Error}
	}
	return nil
}

// ReportStatus sends a status action.
func (c *Client) ReportStatus(ctx context.Context, r domain.StatusReport) error {
	return c.call(ctx, newStatusRequest(r))
}

// ReportCompletion sends a completion action.
func (c *Client) ReportCompletion(ctx context.Context, r domain.CompletionReport) error {
	return c.call(ctx, newCompletionRequest(r))
}

// ReportTokens sends a tokens action.
func (c *Client) ReportTokens(ctx context.Context, r domain.TokenReport) error {
	return c.call(ctx, newTokensRequest(r))
}

// ReportRateLimit sends a rate_limit action.
func (c *Client) ReportRateLimit(ctx context.Context, r domain.RateLimitReport) error {
	return c.call(ctx, newRateLimitRequest(r))
}

// ReportUsage sends a usage action.
func (c *Client) ReportUsage(ctx context.Context, r domain.UsageReport) error {
	return c.call(ctx, newUsageRequest(r))
}
