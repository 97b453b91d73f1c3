package domain

import (
	"fmt"
	"path/filepath"
)

// SessionEnv is the environment variable carrying the session identity
// into the agent process and everything it spawns.
const SessionEnv = "DECK_SESSION_ID"

// HomeEnv overrides the data directory.
const HomeEnv = "DECK_HOME"

// BranchName returns the branch name for a task's workspace.
// Format: deck/task-<id>
func BranchName(taskID int64) string {
	return fmt.Sprintf("deck/task-%d", taskID)
}

// PaneName returns the tmux session name for a session.
// Format: deck-<first 8 chars of the session id>
func PaneName(sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "deck-" + short
}

// WorktreePath returns the path of a task's workspace.
func WorktreePath(home, project string, taskID int64) string {
	return filepath.Join(home, "worktrees", project, fmt.Sprintf("task-%d", taskID))
}

// ScriptPath returns the path of a session's launch script.
func ScriptPath(home, sessionID string) string {
	return filepath.Join(home, "scripts", fmt.Sprintf("session-%s.sh", sessionID))
}

// StorePath returns the path of the SQLite store.
func StorePath(home string) string {
	return filepath.Join(home, "deck.db")
}

// SocketPath returns the path of the status service socket.
func SocketPath(home string) string {
	return filepath.Join(home, "deck.sock")
}

// TmuxSocketPath returns the path to the tmux socket.
func TmuxSocketPath(home string) string {
	return filepath.Join(home, "tmux.sock")
}

// HomeConfigPath returns the per-installation config override.
func HomeConfigPath(home string) string {
	return filepath.Join(home, ConfigFileName)
}

// TaskLogPath returns the path to the task log file.
func TaskLogPath(home string, taskID int64) string {
	return filepath.Join(home, "logs", fmt.Sprintf("task-%d.log", taskID))
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(home string) string {
	return filepath.Join(home, "logs", "deck.log")
}

// ValidProjectName reports whether name can be used as a directory name.
func ValidProjectName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
