// Package tmux drives the terminal panes that host agent processes.
// Every pane is a detached session on a private socket.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ErrNoPane is returned when the named pane does not exist.
var ErrNoPane = errors.New("pane not running")

// ExecFunc is the function signature for syscall.Exec.
// It is used to allow testing of Focus outside tmux.
type ExecFunc func(argv0 string, argv []string, envv []string) error

// Client manages tmux sessions for agentdeck.
// Fields are ordered to minimize memory padding.
type Client struct {
	execFunc   ExecFunc            // Function to use for exec (default: syscall.Exec)
	getenv     func(string) string // Environment lookup (default: os.Getenv)
	socketPath string              // Path to the tmux socket
}

// NewClient creates a new tmux client on the given socket.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		execFunc:   syscall.Exec,
		getenv:     os.Getenv,
	}
}

// SetExecFunc sets the exec function for testing purposes.
func (c *Client) SetExecFunc(fn ExecFunc) {
	c.execFunc = fn
}

// Ensure Client implements domain.Terminal interface.
var _ domain.Terminal = (*Client)(nil)

// Open creates a detached pane running opts.Command in opts.Dir.
func (c *Client) Open(ctx context.Context, opts domain.OpenPaneOptions) error {
	running, err := c.IsRunning(opts.Name)
	if err != nil {
		return fmt.Errorf("check pane: %w", err)
	}
	if running {
		return fmt.Errorf("pane %s already exists", opts.Name)
	}

	cmd := exec.CommandContext(ctx, "tmux", c.openArgs(opts)...) //nolint:gosec // pane names follow deck-<id>
	cmd.Dir = opts.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("open pane: %w: %s", err, string(out))
	}
	return nil
}

// openArgs builds:
// tmux -S <socket> new-session -d -s <name> -c <dir> [-e K=V ...] [command]
func (c *Client) openArgs(opts domain.OpenPaneOptions) []string {
	args := []string{
		"-S", c.socketPath,
		"new-session",
		"-d",
		"-s", opts.Name,
		"-c", opts.Dir,
	}
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+opts.Env[k])
	}
	if opts.Command != "" {
		args = append(args, opts.Command)
	}
	return args
}

// Send types text into the pane literally, then presses Enter.
func (c *Client) Send(pane, text string) error {
	running, err := c.IsRunning(pane)
	if err != nil {
		return fmt.Errorf("check pane: %w", err)
	}
	if !running {
		return fmt.Errorf("%w: %s", ErrNoPane, pane)
	}

	// -l keeps tmux from interpreting words like "Enter" inside the prompt.
	literal := exec.Command("tmux", "-S", c.socketPath, "send-keys", "-t", pane, "-l", text) //nolint:gosec // pane names follow deck-<id>
	if out, err := literal.CombinedOutput(); err != nil {
		return fmt.Errorf("send text: %w: %s", err, string(out))
	}
	enter := exec.Command("tmux", "-S", c.socketPath, "send-keys", "-t", pane, "Enter") //nolint:gosec // pane names follow deck-<id>
	if out, err := enter.CombinedOutput(); err != nil {
		return fmt.Errorf("send enter: %w: %s", err, string(out))
	}
	return nil
}

// Peek captures the last lines of the pane.
func (c *Client) Peek(pane string, lines int) (string, error) {
	running, err := c.IsRunning(pane)
	if err != nil {
		return "", fmt.Errorf("check pane: %w", err)
	}
	if !running {
		return "", fmt.Errorf("%w: %s", ErrNoPane, pane)
	}

	// -S -<lines> starts the capture that many lines above the cursor.
	cmd := exec.Command("tmux", "-S", c.socketPath, "capture-pane", "-t", pane, "-p", "-S", fmt.Sprintf("-%d", lines)) //nolint:gosec // pane names follow deck-<id>
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("capture pane: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// Focus brings the pane to the user's terminal. Inside a tmux client on
// the same socket it switches the client; otherwise it replaces the current
// process with an attached tmux.
func (c *Client) Focus(pane string) error {
	running, err := c.IsRunning(pane)
	if err != nil {
		return fmt.Errorf("check pane: %w", err)
	}
	if !running {
		return fmt.Errorf("%w: %s", ErrNoPane, pane)
	}

	if c.insideOwnServer() {
		cmd := exec.Command("tmux", "-S", c.socketPath, "switch-client", "-t", pane) //nolint:gosec // pane names follow deck-<id>
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("switch client: %w: %s", err, string(out))
		}
		return nil
	}

	tmuxPath, err := exec.LookPath("tmux")
	if err != nil {
		return fmt.Errorf("find tmux: %w", err)
	}
	argv := append([]string{"tmux"}, c.AttachArgs(pane)...)
	if err := c.execFunc(tmuxPath, argv, os.Environ()); err != nil {
		return fmt.Errorf("attach pane: %w", err)
	}
	return nil
}

// AttachArgs returns the tmux arguments that attach to pane.
// The dashboard runs them as a child process instead of exec'ing.
func (c *Client) AttachArgs(pane string) []string {
	return []string{"-S", c.socketPath, "attach", "-t", pane}
}

// insideOwnServer reports whether this process runs in a client of our socket.
// $TMUX has the form <socket>,<pid>,<session>.
func (c *Client) insideOwnServer() bool {
	v := c.getenv("TMUX")
	if v == "" {
		return false
	}
	socket, _, _ := strings.Cut(v, ",")
	return socket == c.socketPath
}

// Close terminates the pane. Children of each pane process get SIGTERM
// first so agents are not orphaned.
func (c *Client) Close(pane string) error {
	running, err := c.IsRunning(pane)
	if err != nil {
		return fmt.Errorf("check pane: %w", err)
	}
	if !running {
		return nil
	}

	list := exec.Command("tmux", "-S", c.socketPath, "list-panes", "-t", pane, "-F", "#{pane_pid}") //nolint:gosec // pane names follow deck-<id>
	if out, err := list.Output(); err == nil {
		for _, pid := range strings.Fields(string(out)) {
			_ = exec.Command("pkill", "-TERM", "-P", pid).Run()
		}
	}

	kill := exec.Command("tmux", "-S", c.socketPath, "kill-session", "-t", pane) //nolint:gosec // pane names follow deck-<id>
	if out, err := kill.CombinedOutput(); err != nil {
		// The session may have exited on its own once its children died.
		if still, checkErr := c.IsRunning(pane); checkErr != nil || still {
			return fmt.Errorf("close pane: %w: %s", err, string(out))
		}
	}
	return nil
}

// IsRunning checks if a pane exists. A missing tmux server counts as not running.
func (c *Client) IsRunning(pane string) (bool, error) {
	cmd := exec.Command("tmux", "-S", c.socketPath, "has-session", "-t", "="+pane) //nolint:gosec // pane names follow deck-<id>
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("run tmux: %w", err)
	}
	return true, nil
}
