// Package executor provides command execution functionality.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Client implements domain.CommandExecutor interface.
type Client struct{}

// NewClient creates a new command executor client.
func NewClient() *Client {
	return &Client{}
}

// Ensure Client implements domain.CommandExecutor interface.
var _ domain.CommandExecutor = (*Client)(nil)

// Execute runs the command and returns its combined output.
// Cancelling ctx kills the process.
func (c *Client) Execute(ctx context.Context, cmd *domain.ExecCommand) ([]byte, error) {
	// #nosec G204 - cmd.Program and cmd.Args come from trusted UseCase code
	execCmd := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	if cmd.Dir != "" {
		execCmd.Dir = cmd.Dir
	}
	var out bytes.Buffer
	execCmd.Stdout = &out
	execCmd.Stderr = &out
	if err := execCmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("%s %s: %w: %s",
			cmd.Program, strings.Join(cmd.Args, " "), err, strings.TrimSpace(out.String()))
	}
	return out.Bytes(), nil
}
