// Package notify runs the user's notification command when a task
// reaches review.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/runoshun/agentdeck/internal/domain"
)

// CommandData contains the data for expanding the notify command template.
type CommandData struct {
	Title string // Shell-quoted task title
}

// Notifier implements domain.Notifier by running a shell command.
// Fields are ordered to minimize memory padding.
type Notifier struct {
	executor domain.CommandExecutor
	tmpl     *template.Template // nil disables notifications
	logger   domain.Logger
	wg       sync.WaitGroup
}

// NewNotifier creates a new Notifier. An empty command disables it.
func NewNotifier(command string, executor domain.CommandExecutor, logger domain.Logger) (*Notifier, error) {
	n := &Notifier{executor: executor, logger: logger}
	if strings.TrimSpace(command) == "" {
		return n, nil
	}
	tmpl, err := template.New("notify").Option("missingkey=error").Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse notify command: %w", err)
	}
	n.tmpl = tmpl
	return n, nil
}

// Ensure Notifier implements domain.Notifier interface.
var _ domain.Notifier = (*Notifier)(nil)

// Notify runs the command in the background and returns immediately.
// Failures are logged.
func (n *Notifier) Notify(title string) {
	if n.tmpl == nil {
		return
	}

	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, CommandData{Title: shellQuote(title)}); err != nil {
		n.logger.Error(0, "notify", fmt.Sprintf("expand command: %v", err))
		return
	}

	cmd := domain.NewShellCommand(buf.String(), "")
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if _, err := n.executor.Execute(context.Background(), cmd); err != nil {
			n.logger.Warn(0, "notify", fmt.Sprintf("command failed: %v", err))
		}
	}()
}

// Wait blocks until every started command has exited.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// shellQuote wraps a string in single quotes for safe use in shell commands.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
