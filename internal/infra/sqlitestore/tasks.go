package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/runoshun/agentdeck/internal/domain"
)

const taskColumns = `id, project_id, title, description, status, mode, session_id,
	input_tokens, output_tokens, cost_usd, pr_url, sort_order,
	created_at, started_at, completed_at`

// CreateTask inserts a task at the end of its project's queue.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task, subtasks []string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var next int
		if err := tx.GetContext(ctx, &next,
			`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tasks WHERE project_id = ?`, t.ProjectID); err != nil {
			return fmt.Errorf("next sort order: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (project_id, title, description, status, mode, sort_order, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ProjectID, t.Title, t.Description, domain.StatusPending, t.Mode, next, t.Created)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read task id: %w", err)
		}

		for i, title := range subtasks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subtasks (task_id, title, status, sort_order) VALUES (?, ?, ?, ?)`,
				id, title, domain.SubtaskPending, i+1); err != nil {
				return fmt.Errorf("insert subtask: %w", err)
			}
		}

		t.ID = id
		t.SortOrder = next
		t.Status = domain.StatusPending
		return nil
	})
}

// GetTask returns nil if not found.
func (s *Store) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var t domain.Task
	err := s.reader.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns tasks ordered by project, then queue position.
func (s *Store) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != nil {
		where = append(where, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.HasPR {
		where = append(where, "pr_url != ''")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY project_id, sort_order"

	var tasks []*domain.Task
	if err := s.reader.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes a task and its subtasks.
// A task bound to an active session cannot be deleted.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		bound, err := activeSessionCount(ctx, tx, id)
		if err != nil {
			return err
		}
		if bound > 0 {
			return fmt.Errorf("%w: task %d", domain.ErrTaskBusy, id)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}
		ok, err := affected(res)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTaskNotFound
		}
		return nil
	})
}

// SwapTaskOrder exchanges sort_order with the previous (up) or next task
// of the same project.
func (s *Store) SwapTaskOrder(ctx context.Context, id int64, up bool) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var cur struct {
			ProjectID int64 `db:"project_id"`
			SortOrder int   `db:"sort_order"`
		}
		err := tx.GetContext(ctx, &cur, `SELECT project_id, sort_order FROM tasks WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		if err != nil {
			return fmt.Errorf("get task %d: %w", id, err)
		}

		query := `SELECT id, sort_order FROM tasks WHERE project_id = ? AND sort_order > ? ORDER BY sort_order ASC LIMIT 1`
		if up {
			query = `SELECT id, sort_order FROM tasks WHERE project_id = ? AND sort_order < ? ORDER BY sort_order DESC LIMIT 1`
		}
		var other struct {
			ID        int64 `db:"id"`
			SortOrder int   `db:"sort_order"`
		}
		err = tx.GetContext(ctx, &other, query, cur.ProjectID, cur.SortOrder)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNoNeighbor
		}
		if err != nil {
			return fmt.Errorf("find neighbor: %w", err)
		}

		// (project_id, sort_order) is unique, so park one row first.
		steps := []struct {
			id    int64
			order int
		}{
			{id, -1},
			{other.ID, cur.SortOrder},
			{id, other.SortOrder},
		}
		for _, st := range steps {
			if _, err := tx.ExecContext(ctx, `UPDATE tasks SET sort_order = ? WHERE id = ?`, st.order, st.id); err != nil {
				return fmt.Errorf("reorder task %d: %w", st.id, err)
			}
		}
		return nil
	})
}

// NextEligibleTask returns the lowest sort_order pending autonomous task.
func (s *Store) NextEligibleTask(ctx context.Context, projectID int64) (*domain.Task, error) {
	var t domain.Task
	err := s.reader.GetContext(ctx, &t, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ? AND status = ? AND mode = ?
		ORDER BY sort_order ASC LIMIT 1`,
		projectID, domain.StatusPending, domain.ModeAutonomous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next eligible task: %w", err)
	}
	return &t, nil
}

// AddTokens increments the usage counters of a task.
func (s *Store) AddTokens(ctx context.Context, taskID int64, in, out int64, cost float64) error {
	res, err := s.writer.ExecContext(ctx, `
		UPDATE tasks
		SET input_tokens = input_tokens + ?, output_tokens = output_tokens + ?, cost_usd = cost_usd + ?
		WHERE id = ?`, in, out, cost, taskID)
	if err != nil {
		return fmt.Errorf("add tokens to task %d: %w", taskID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTaskNotFound
	}
	return nil
}

// TransitionTask moves a task from one status to another. The update only
// applies while the task is still in from, so concurrent writers cannot
// regress it.
func (s *Store) TransitionTask(ctx context.Context, id int64, from, to domain.Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return transitionTx(ctx, tx, id, from, to)
	})
}

// SetTaskPR stores the pull-request reference of a task.
func (s *Store) SetTaskPR(ctx context.Context, id int64, prURL string) error {
	res, err := s.writer.ExecContext(ctx, `UPDATE tasks SET pr_url = ? WHERE id = ?`, prURL, id)
	if err != nil {
		return fmt.Errorf("set pr for task %d: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTaskNotFound
	}
	return nil
}

func transitionTx(ctx context.Context, tx *sqlx.Tx, id int64, from, to domain.Status) error {
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return fmt.Errorf("update task %d status: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return statusMismatch(ctx, tx, id, from, to)
}

// statusMismatch explains why a guarded status update matched no row.
func statusMismatch(ctx context.Context, tx *sqlx.Tx, id int64, from, to domain.Status) error {
	var actual domain.Status
	err := tx.GetContext(ctx, &actual, `SELECT status FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("get task %d status: %w", id, err)
	}
	return fmt.Errorf("%w: task %d is %s, not %s (wanted %s)", domain.ErrInvalidTransition, id, actual, from, to)
}

func activeSessionCount(ctx context.Context, tx *sqlx.Tx, taskID int64) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions WHERE task_id = ? AND closed_at IS NULL`, taskID)
	if err != nil {
		return 0, fmt.Errorf("count sessions of task %d: %w", taskID, err)
	}
	return n, nil
}
