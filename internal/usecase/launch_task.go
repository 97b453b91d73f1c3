package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/runoshun/agentdeck/internal/domain"
)

// LaunchOptions holds the installation settings a launch needs.
type LaunchOptions struct {
	Home         string // agentdeck home directory
	AgentCommand string // Agent command; the prompt is appended as last argument
	DeckBin      string // deck binary called back by the launch script
}

// LaunchTaskInput contains the parameters for launching a task.
type LaunchTaskInput struct {
	TaskID int64
}

// LaunchTaskOutput contains the result of launching a task.
type LaunchTaskOutput struct {
	SessionID string
	Pane      string
	Workspace string
}

// LaunchTask is the use case for starting a pending task in a new session:
// worktree, seeded config, terminal pane and session record.
// Fields are ordered to minimize memory padding.
type LaunchTask struct {
	store      domain.Store
	terminal   domain.Terminal
	workspaces domain.WorkspaceManager
	seeder     domain.WorkspaceSeeder
	differ     domain.DiffStatter
	clock      domain.Clock
	logger     domain.Logger
	newID      func() string
	opts       LaunchOptions
}

// NewLaunchTask creates a new LaunchTask use case.
func NewLaunchTask(
	store domain.Store,
	terminal domain.Terminal,
	workspaces domain.WorkspaceManager,
	seeder domain.WorkspaceSeeder,
	differ domain.DiffStatter,
	clock domain.Clock,
	logger domain.Logger,
	opts LaunchOptions,
) *LaunchTask {
	return &LaunchTask{
		store:      store,
		terminal:   terminal,
		workspaces: workspaces,
		seeder:     seeder,
		differ:     differ,
		clock:      clock,
		logger:     logger,
		newID:      uuid.NewString,
		opts:       opts,
	}
}

// SetIDGenerator replaces the session ID generator for testing purposes.
func (uc *LaunchTask) SetIDGenerator(fn func() string) {
	uc.newID = fn
}

// Execute launches the task. Every step before binding is rolled back on
// failure, so a failed launch leaves the task pending.
func (uc *LaunchTask) Execute(ctx context.Context, in LaunchTaskInput) (*LaunchTaskOutput, error) {
	task, err := requireTask(ctx, uc.store, in.TaskID)
	if err != nil {
		return nil, err
	}
	if !task.Status.CanTransitionTo(domain.StatusInProgress) {
		return nil, fmt.Errorf("%w: task %d is %s", domain.ErrInvalidTransition, task.ID, task.Status)
	}
	existing, err := uc.store.ActiveSessionForTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: session %s", domain.ErrTaskAlreadyBound, existing.ID)
	}

	project, err := uc.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrProjectNotFound, task.ProjectID)
	}

	subtasks, err := uc.store.ListSubtasks(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	var first *domain.Subtask
	if len(subtasks) > 0 {
		first = subtasks[0]
	}

	sessionID := uc.newID()
	session := &domain.Session{
		ID:          sessionID,
		ProjectID:   project.ID,
		Workspace:   domain.WorktreePath(uc.opts.Home, project.Name, task.ID),
		Branch:      domain.BranchName(task.ID),
		Pane:        domain.PaneName(sessionID),
		AgentStatus: domain.AgentWorking,
	}

	if err := uc.workspaces.Create(project.RepoPath, session.Workspace, session.Branch); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	rollbackWorkspace := func() {
		if rmErr := uc.workspaces.ForceRemove(project.RepoPath, session.Workspace); rmErr != nil {
			uc.logger.Warn(task.ID, "launch", fmt.Sprintf("rollback workspace: %v", rmErr))
		}
	}

	if err := uc.seeder.Seed(session.Workspace, project); err != nil {
		rollbackWorkspace()
		return nil, fmt.Errorf("seed workspace: %w", err)
	}
	session.BaseCommit, err = uc.differ.HeadCommit(session.Workspace)
	if err != nil {
		rollbackWorkspace()
		return nil, fmt.Errorf("read base commit: %w", err)
	}

	prompt := domain.BuildPrompt(task, subtasks, first)
	scriptPath, err := uc.writeScript(sessionID, prompt)
	if err != nil {
		rollbackWorkspace()
		return nil, err
	}

	err = uc.terminal.Open(ctx, domain.OpenPaneOptions{
		Name:    session.Pane,
		Dir:     session.Workspace,
		Command: scriptPath,
		Env: map[string]string{
			domain.SessionEnv: sessionID,
			domain.HomeEnv:    uc.opts.Home,
		},
	})
	if err != nil {
		_ = os.Remove(scriptPath)
		rollbackWorkspace()
		return nil, fmt.Errorf("open pane: %w", err)
	}

	now := uc.clock.Now()
	session.Created = now
	session.Updated = now
	if _, err := uc.store.BindSession(ctx, session, task.ID, now); err != nil {
		if closeErr := uc.terminal.Close(session.Pane); closeErr != nil {
			uc.logger.Warn(task.ID, "launch", fmt.Sprintf("rollback pane: %v", closeErr))
		}
		_ = os.Remove(scriptPath)
		rollbackWorkspace()
		return nil, fmt.Errorf("bind session: %w", err)
	}

	uc.logger.Info(task.ID, "launch", fmt.Sprintf("session %s in %s", sessionID, session.Workspace))
	return &LaunchTaskOutput{
		SessionID: sessionID,
		Pane:      session.Pane,
		Workspace: session.Workspace,
	}, nil
}

// writeScript writes the pane's launch script and returns its path.
func (uc *LaunchTask) writeScript(sessionID, prompt string) (string, error) {
	if strings.Contains(prompt, promptDelimiter) {
		return "", errors.New("prompt contains the heredoc delimiter " + promptDelimiter)
	}
	deckBin := uc.opts.DeckBin
	if deckBin == "" {
		deckBin = "deck"
	}

	tmpl := template.Must(template.New("script").Parse(scriptTemplate))
	var script strings.Builder
	err := tmpl.Execute(&script, scriptTemplateData{
		SessionID:    sessionID,
		AgentCommand: uc.opts.AgentCommand,
		Prompt:       prompt,
		Delimiter:    promptDelimiter,
		DeckBin:      deckBin,
	})
	if err != nil {
		return "", fmt.Errorf("execute script template: %w", err)
	}

	path := domain.ScriptPath(uc.opts.Home, sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create script dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(script.String()), 0o700); err != nil { //nolint:gosec // script must be executable
		return "", fmt.Errorf("write script: %w", err)
	}
	return path, nil
}

const promptDelimiter = "END_OF_DECK_PROMPT"

type scriptTemplateData struct {
	SessionID    string
	AgentCommand string
	Prompt       string
	Delimiter    string
	DeckBin      string
}

// scriptTemplate is the template for the pane script.
// The prompt is embedded using a heredoc to avoid escaping issues.
const scriptTemplate = `#!/bin/bash
set -o pipefail

# Embedded prompt
read -r -d '' PROMPT << '{{.Delimiter}}'
{{.Prompt}}
{{.Delimiter}}

# Report abnormal exits; a clean exit needs no report
AGENT_EXITED() {
  local code=$?
  if [ "$code" -ne 0 ]; then
    "{{.DeckBin}}" report --session {{.SessionID}} --status error --message "agent exited with code $code" || true
  fi
}

# Signal handling
trap AGENT_EXITED EXIT     # Both normal and abnormal exit
trap 'exit 130' INT        # Ctrl+C -> exit code 130
trap 'exit 143' TERM       # kill -> exit code 143
trap 'exit 129' HUP        # hangup -> exit code 129

# Run agent
{{.AgentCommand}} "$PROMPT"
`
