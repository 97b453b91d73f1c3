package domain

import "time"

// Project is a registered code repository.
type Project struct {
	Created  time.Time `db:"created_at"`
	Name     string    `db:"name"`
	RepoPath string    `db:"repo_path"`
	ID       int64     `db:"id"`
}

// DiffStats summarizes the changes made in a workspace.
type DiffStats struct {
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
}

// Session is the runtime binding between a project, an isolated workspace
// and a terminal pane running the agent.
// Fields are ordered to minimize memory padding.
type Session struct {
	Created       time.Time
	Updated       time.Time
	ClosedAt      *time.Time // nil while active
	TaskID        *int64     // Task currently bound to the session
	Diff          *DiffStats // Captured at teardown
	ID            string
	Workspace     string
	Branch        string
	BaseCommit    string
	Pane          string
	AgentStatus   AgentStatus
	StatusMessage string
	ProjectID     int64
	FeedDeferred  bool // Autonomous feed waiting for the rate-limit gate
}

// IsActive returns true until the session has been torn down.
func (s *Session) IsActive() bool {
	return s.ClosedAt == nil
}

// IsBoundTo reports whether the session currently serves the given task.
func (s *Session) IsBoundTo(taskID int64) bool {
	return s.TaskID != nil && *s.TaskID == taskID
}
