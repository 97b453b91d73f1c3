package domain

import (
	"context"
	"time"
)

// ProjectRepository manages project persistence.
type ProjectRepository interface {
	// CreateProject inserts a project and sets its ID.
	// Returns ErrProjectExists if the name is taken.
	CreateProject(ctx context.Context, p *Project) error

	// GetProjectByName returns nil if not found.
	GetProjectByName(ctx context.Context, name string) (*Project, error)

	// GetProject returns nil if not found.
	GetProject(ctx context.Context, id int64) (*Project, error)

	ListProjects(ctx context.Context) ([]*Project, error)

	// DeleteProject removes the project, cascading to tasks and sessions.
	DeleteProject(ctx context.Context, id int64) error
}

// TaskRepository manages task and subtask persistence.
type TaskRepository interface {
	// CreateTask inserts a task with the next sort_order of its project,
	// plus its subtasks in the given order. Sets ID and SortOrder.
	CreateTask(ctx context.Context, t *Task, subtasks []string) error

	// GetTask returns nil if not found.
	GetTask(ctx context.Context, id int64) (*Task, error)

	ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error)

	DeleteTask(ctx context.Context, id int64) error

	// SwapTaskOrder exchanges sort_order with the adjacent task of the same project.
	SwapTaskOrder(ctx context.Context, id int64, up bool) error

	// NextEligibleTask returns the lowest sort_order pending autonomous task
	// of the project, or nil.
	NextEligibleTask(ctx context.Context, projectID int64) (*Task, error)

	ListSubtasks(ctx context.Context, taskID int64) ([]*Subtask, error)

	// AddTokens increments the usage counters of a task.
	AddTokens(ctx context.Context, taskID int64, in, out int64, cost float64) error

	// TransitionTask moves a task from one status to another atomically.
	// Returns ErrInvalidTransition if the move is not allowed or the task
	// is no longer in the from status.
	TransitionTask(ctx context.Context, id int64, from, to Status) error

	// SetTaskPR stores the pull-request reference of a task.
	SetTaskPR(ctx context.Context, id int64, prURL string) error
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	ProjectID *int64
	Status    *Status
	HasPR     bool // Only tasks with a pull-request reference
}

// SessionRepository manages sessions and the task bindings they carry.
type SessionRepository interface {
	// BindSession inserts a session and starts the pending task on it
	// (pending → in_progress) in one transaction. The first subtask, if
	// any, is activated and returned.
	BindSession(ctx context.Context, s *Session, taskID int64, at time.Time) (*Subtask, error)

	// BindNextTask rebinds an active session to a pending task.
	BindNextTask(ctx context.Context, sessionID string, taskID int64, at time.Time) (*Subtask, error)

	// GetSession returns nil if not found.
	GetSession(ctx context.Context, id string) (*Session, error)

	ListSessions(ctx context.Context, filter SessionFilter) ([]*Session, error)

	// ActiveSessionForTask returns the active session bound to the task, or nil.
	ActiveSessionForTask(ctx context.Context, taskID int64) (*Session, error)

	UpdateAgentStatus(ctx context.Context, sessionID string, status AgentStatus, message string, at time.Time) error

	SetFeedDeferred(ctx context.Context, sessionID string, deferred bool) error

	// AdvanceSubtask marks the active subtask of a task done and activates the
	// next pending one. Returns the newly active subtask (nil if none remain)
	// and whether the task had an active subtask at all.
	AdvanceSubtask(ctx context.Context, taskID int64) (next *Subtask, advanced bool, err error)

	// CompleteTask moves the task in_progress → in_review, stores the PR
	// reference, and sets the session idle, in one transaction.
	CompleteTask(ctx context.Context, taskID int64, sessionID, prURL, message string, at time.Time) error

	// CloseSession marks a session closed and records its diff statistics.
	CloseSession(ctx context.Context, id string, diff *DiffStats, at time.Time) error
}

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	ProjectID    *int64
	ActiveOnly   bool
	FeedDeferred bool
}

// RateLimitRepository manages the singleton rate-limit record.
type RateLimitRepository interface {
	GetRateLimit(ctx context.Context) (*RateLimitState, error)

	// PauseFeeding closes the gate until resetsAt (nil = until cleared).
	PauseFeeding(ctx context.Context, window string, resetsAt *time.Time, at time.Time) error

	// ResumeFeeding opens the gate.
	ResumeFeeding(ctx context.Context, at time.Time) error

	// UpdateUsage records usage percentages without touching the gate.
	UpdateUsage(ctx context.Context, u UsageSnapshot, at time.Time) error
}

// Store is the single source of truth shared by every process.
type Store interface {
	ProjectRepository
	TaskRepository
	SessionRepository
	RateLimitRepository

	// SchemaVersion returns the highest applied migration.
	SchemaVersion(ctx context.Context) (int, error)

	Close() error
}

// Terminal manages the external terminal surface of a session.
type Terminal interface {
	// Open creates a detached pane running the command.
	Open(ctx context.Context, opts OpenPaneOptions) error

	// Send injects text followed by Enter into the pane.
	Send(pane, text string) error

	// Focus switches the attached client to the pane.
	Focus(pane string) error

	// Peek returns the last lines of the pane's visible output.
	Peek(pane string, lines int) (string, error)

	// Close terminates the pane and its processes.
	Close(pane string) error

	IsRunning(pane string) (bool, error)
}

// OpenPaneOptions configures pane creation.
type OpenPaneOptions struct {
	Env     map[string]string // Extra environment for the pane
	Name    string
	Dir     string
	Command string
}

// WorkspaceManager creates and removes isolated checkouts.
type WorkspaceManager interface {
	// Create adds a worktree at path on a new branch from the repo HEAD.
	// An existing worktree at path is reused.
	Create(repoPath, path, branch string) error

	// ForceRemove deletes the worktree even with uncommitted changes.
	// Uncommitted work is lost.
	ForceRemove(repoPath, path string) error
}

// WorkspaceSeeder writes per-workspace instructions and automation hooks.
type WorkspaceSeeder interface {
	Seed(workspace string, project *Project) error
}

// DiffStatter inspects a workspace's git history.
type DiffStatter interface {
	// HeadCommit returns the commit hash HEAD points to.
	HeadCommit(repoPath string) (string, error)

	// Stats returns the changes between baseCommit and the workspace HEAD.
	Stats(workspace, baseCommit string) (DiffStats, error)
}

// Notifier dispatches a fire-and-forget notification.
type Notifier interface {
	Notify(title string)
}

// UsageFetcher reads the account's usage windows from an external source.
type UsageFetcher interface {
	FetchUsage(ctx context.Context) (UsageSnapshot, error)
}

// ReviewChecker queries the code-review system for merge state.
type ReviewChecker interface {
	IsMerged(ctx context.Context, prURL string) (bool, error)
}

// CommandExecutor runs external commands.
type CommandExecutor interface {
	// Execute runs the command and returns its combined output.
	Execute(ctx context.Context, cmd *ExecCommand) ([]byte, error)
}

// Logger writes operational log entries. taskID 0 logs globally.
type Logger interface {
	Debug(taskID int64, category, msg string)
	Info(taskID int64, category, msg string)
	Warn(taskID int64, category, msg string)
	Error(taskID int64, category, msg string)
}

// NopLogger discards all entries.
type NopLogger struct{}

func (NopLogger) Debug(int64, string, string) {}
func (NopLogger) Info(int64, string, string)  {}
func (NopLogger) Warn(int64, string, string)  {}
func (NopLogger) Error(int64, string, string) {}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
