package domain

import "errors"

// Domain errors.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectExists      = errors.New("project already exists")
	ErrProjectBusy        = errors.New("project has active sessions")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session is closed")
	ErrNoTaskBound        = errors.New("no task bound to session")
	ErrTaskAlreadyBound   = errors.New("task already bound to an active session")
	ErrTaskBusy           = errors.New("task is bound to an active session")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidMode        = errors.New("invalid task mode")
	ErrInvalidAgentStatus = errors.New("invalid agent status")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrInvalidName        = errors.New("name may only contain letters, digits, dots, underscores and hyphens")
	ErrNoSessionID        = errors.New("no session id (set DECK_SESSION_ID or pass --session)")
	ErrSchemaTooNew       = errors.New("store schema is newer than this binary supports")
	ErrNoNeighbor         = errors.New("no task to swap with")
	ErrConfigExists       = errors.New("config file already exists")
	ErrNoTasksInFile      = errors.New("no tasks found in file")
	ErrInvalidRepoPath    = errors.New("repository path must be an existing directory")
)
