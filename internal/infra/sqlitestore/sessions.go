package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/runoshun/agentdeck/internal/domain"
)

const sessionColumns = `id, project_id, task_id, workspace_path, branch, base_commit, pane,
	claude_status, status_message, files_changed, lines_added, lines_removed,
	feed_deferred, created_at, updated_at, closed_at`

// sessionRow is the persisted shape of domain.Session.
// Fields are ordered to minimize memory padding.
type sessionRow struct {
	Created       time.Time     `db:"created_at"`
	Updated       time.Time     `db:"updated_at"`
	ClosedAt      *time.Time    `db:"closed_at"`
	TaskID        sql.NullInt64 `db:"task_id"`
	FilesChanged  sql.NullInt64 `db:"files_changed"`
	LinesAdded    sql.NullInt64 `db:"lines_added"`
	LinesRemoved  sql.NullInt64 `db:"lines_removed"`
	ID            string        `db:"id"`
	Workspace     string        `db:"workspace_path"`
	Branch        string        `db:"branch"`
	BaseCommit    string        `db:"base_commit"`
	Pane          string        `db:"pane"`
	AgentStatus   string        `db:"claude_status"`
	StatusMessage string        `db:"status_message"`
	ProjectID     int64         `db:"project_id"`
	FeedDeferred  bool          `db:"feed_deferred"`
}

func (r *sessionRow) toDomain() *domain.Session {
	s := &domain.Session{
		Created:       r.Created,
		Updated:       r.Updated,
		ClosedAt:      r.ClosedAt,
		ID:            r.ID,
		Workspace:     r.Workspace,
		Branch:        r.Branch,
		BaseCommit:    r.BaseCommit,
		Pane:          r.Pane,
		AgentStatus:   domain.AgentStatus(r.AgentStatus),
		StatusMessage: r.StatusMessage,
		ProjectID:     r.ProjectID,
		FeedDeferred:  r.FeedDeferred,
	}
	if r.TaskID.Valid {
		id := r.TaskID.Int64
		s.TaskID = &id
	}
	if r.FilesChanged.Valid {
		s.Diff = &domain.DiffStats{
			FilesChanged: int(r.FilesChanged.Int64),
			LinesAdded:   int(r.LinesAdded.Int64),
			LinesRemoved: int(r.LinesRemoved.Int64),
		}
	}
	return s
}

// BindSession inserts the session and starts the task on it.
func (s *Store) BindSession(ctx context.Context, sess *domain.Session, taskID int64, at time.Time) (*domain.Subtask, error) {
	var first *domain.Subtask
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkBindable(ctx, tx, taskID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, project_id, task_id, workspace_path, branch, base_commit, pane,
				claude_status, status_message, feed_deferred, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', 0, ?, ?)`,
			sess.ID, sess.ProjectID, taskID, sess.Workspace, sess.Branch, sess.BaseCommit, sess.Pane,
			domain.AgentWorking, at, at)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: task %d", domain.ErrTaskAlreadyBound, taskID)
			}
			return fmt.Errorf("insert session: %w", err)
		}

		first, err = startTask(ctx, tx, taskID, sess.ID, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	sess.TaskID = &taskID
	sess.AgentStatus = domain.AgentWorking
	sess.Created = at
	sess.Updated = at
	return first, nil
}

// BindNextTask rebinds an active, idle session to a pending task.
func (s *Store) BindNextTask(ctx context.Context, sessionID string, taskID int64, at time.Time) (*domain.Subtask, error) {
	var first *domain.Subtask
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := getSessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if row.ClosedAt != nil {
			return domain.ErrSessionClosed
		}
		if row.TaskID.Valid {
			var current domain.Status
			err := tx.GetContext(ctx, &current, `SELECT status FROM tasks WHERE id = ?`, row.TaskID.Int64)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("get task %d status: %w", row.TaskID.Int64, err)
			}
			if current == domain.StatusInProgress {
				return fmt.Errorf("%w: task %d", domain.ErrTaskBusy, row.TaskID.Int64)
			}
		}

		if err := checkBindable(ctx, tx, taskID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET task_id = ?, claude_status = ?, status_message = '', feed_deferred = 0, updated_at = ?
			WHERE id = ?`, taskID, domain.AgentWorking, at, sessionID); err != nil {
			return fmt.Errorf("rebind session %s: %w", sessionID, err)
		}

		first, err = startTask(ctx, tx, taskID, sessionID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// checkBindable rejects binding a missing task or one that already has an
// active session.
func checkBindable(ctx context.Context, tx *sqlx.Tx, taskID int64) error {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks WHERE id = ?`, taskID); err != nil {
		return fmt.Errorf("get task %d: %w", taskID, err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	bound, err := activeSessionCount(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if bound > 0 {
		return fmt.Errorf("%w: task %d", domain.ErrTaskAlreadyBound, taskID)
	}
	return nil
}

// startTask moves a pending task to in_progress on the session and
// activates its first step.
func startTask(ctx context.Context, tx *sqlx.Tx, taskID int64, sessionID string, at time.Time) (*domain.Subtask, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET status = ?, session_id = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		domain.StatusInProgress, sessionID, at, taskID, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("start task %d: %w", taskID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, statusMismatch(ctx, tx, taskID, domain.StatusPending, domain.StatusInProgress)
	}
	return activateNextSubtask(ctx, tx, taskID)
}

// GetSession returns nil if not found.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := s.reader.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ListSessions returns sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != nil {
		where = append(where, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.ActiveOnly {
		where = append(where, "closed_at IS NULL")
	}
	if filter.FeedDeferred {
		where = append(where, "feed_deferred = 1")
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []sessionRow
	if err := s.reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]*domain.Session, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, rows[i].toDomain())
	}
	return sessions, nil
}

// ActiveSessionForTask returns the active session bound to the task, or nil.
func (s *Store) ActiveSessionForTask(ctx context.Context, taskID int64) (*domain.Session, error) {
	var row sessionRow
	err := s.reader.GetContext(ctx, &row,
		`SELECT `+sessionColumns+` FROM sessions WHERE task_id = ? AND closed_at IS NULL`, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session of task %d: %w", taskID, err)
	}
	return row.toDomain(), nil
}

// UpdateAgentStatus records the agent's reported status on an active session.
func (s *Store) UpdateAgentStatus(ctx context.Context, sessionID string, status domain.AgentStatus, message string, at time.Time) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE sessions SET claude_status = ?, status_message = ?, updated_at = ?
			WHERE id = ? AND closed_at IS NULL`, status, message, at, sessionID)
		if err != nil {
			return fmt.Errorf("update session %s status: %w", sessionID, err)
		}
		return requireActive(ctx, tx, res, sessionID)
	})
}

// SetFeedDeferred flags or clears a pending autonomous feed.
func (s *Store) SetFeedDeferred(ctx context.Context, sessionID string, deferred bool) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET feed_deferred = ? WHERE id = ? AND closed_at IS NULL`, deferred, sessionID)
		if err != nil {
			return fmt.Errorf("update session %s feed flag: %w", sessionID, err)
		}
		return requireActive(ctx, tx, res, sessionID)
	})
}

// CompleteTask moves the task to in_review and idles its session.
func (s *Store) CompleteTask(ctx context.Context, taskID int64, sessionID, prURL, message string, at time.Time) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET status = ?, completed_at = ?, pr_url = CASE WHEN ? = '' THEN pr_url ELSE ? END
			WHERE id = ? AND status = ?`,
			domain.StatusInReview, at, prURL, prURL, taskID, domain.StatusInProgress)
		if err != nil {
			return fmt.Errorf("complete task %d: %w", taskID, err)
		}
		ok, err := affected(res)
		if err != nil {
			return err
		}
		if !ok {
			return statusMismatch(ctx, tx, taskID, domain.StatusInProgress, domain.StatusInReview)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE sessions SET claude_status = ?, status_message = ?, updated_at = ?
			WHERE id = ?`, domain.AgentIdle, message, at, sessionID); err != nil {
			return fmt.Errorf("idle session %s: %w", sessionID, err)
		}
		return nil
	})
}

// CloseSession marks a session closed and records its diff statistics.
func (s *Store) CloseSession(ctx context.Context, id string, diff *domain.DiffStats, at time.Time) error {
	var files, added, removed sql.NullInt64
	if diff != nil {
		files = sql.NullInt64{Int64: int64(diff.FilesChanged), Valid: true}
		added = sql.NullInt64{Int64: int64(diff.LinesAdded), Valid: true}
		removed = sql.NullInt64{Int64: int64(diff.LinesRemoved), Valid: true}
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET closed_at = ?, updated_at = ?, feed_deferred = 0,
				files_changed = ?, lines_added = ?, lines_removed = ?
			WHERE id = ? AND closed_at IS NULL`,
			at, at, files, added, removed, id)
		if err != nil {
			return fmt.Errorf("close session %s: %w", id, err)
		}
		return requireActive(ctx, tx, res, id)
	})
}

func getSessionTx(ctx context.Context, tx *sqlx.Tx, id string) (*sessionRow, error) {
	var row sessionRow
	err := tx.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &row, nil
}

// requireActive maps a guarded session update that matched no row to
// ErrSessionNotFound or ErrSessionClosed.
func requireActive(ctx context.Context, tx *sqlx.Tx, res sql.Result, id string) error {
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := getSessionTx(ctx, tx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrSessionClosed, id)
}
