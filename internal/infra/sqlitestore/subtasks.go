package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/runoshun/agentdeck/internal/domain"
)

const subtaskColumns = `id, task_id, title, status, sort_order`

// ListSubtasks returns the steps of a task in order.
func (s *Store) ListSubtasks(ctx context.Context, taskID int64) ([]*domain.Subtask, error) {
	var subs []*domain.Subtask
	err := s.reader.SelectContext(ctx, &subs,
		`SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY sort_order`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks of task %d: %w", taskID, err)
	}
	return subs, nil
}

// AdvanceSubtask completes the active step of a task and activates the next.
func (s *Store) AdvanceSubtask(ctx context.Context, taskID int64) (*domain.Subtask, bool, error) {
	var (
		next     *domain.Subtask
		advanced bool
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var activeID int64
		err := tx.GetContext(ctx, &activeID,
			`SELECT id FROM subtasks WHERE task_id = ? AND status = ? ORDER BY sort_order LIMIT 1`,
			taskID, domain.SubtaskInProgress)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find active subtask: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE subtasks SET status = ? WHERE id = ?`, domain.SubtaskDone, activeID); err != nil {
			return fmt.Errorf("complete subtask %d: %w", activeID, err)
		}
		advanced = true

		next, err = activateNextSubtask(ctx, tx, taskID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return next, advanced, nil
}

// activateNextSubtask marks the first pending step in_progress, returning
// nil when none remain.
func activateNextSubtask(ctx context.Context, tx *sqlx.Tx, taskID int64) (*domain.Subtask, error) {
	var sub domain.Subtask
	err := tx.GetContext(ctx, &sub,
		`SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? AND status = ? ORDER BY sort_order LIMIT 1`,
		taskID, domain.SubtaskPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending subtask: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE subtasks SET status = ? WHERE id = ?`, domain.SubtaskInProgress, sub.ID); err != nil {
		return nil, fmt.Errorf("activate subtask %d: %w", sub.ID, err)
	}
	sub.Status = domain.SubtaskInProgress
	return &sub, nil
}
