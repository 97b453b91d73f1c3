package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

type rateLimitRow struct {
	ResetsAt    *time.Time `db:"resets_at"`
	Updated     *time.Time `db:"updated_at"`
	Window      string     `db:"limit_window"`
	FiveHourPct float64    `db:"five_hour_pct"`
	SevenDayPct float64    `db:"seven_day_pct"`
	Paused      bool       `db:"paused"`
}

// GetRateLimit returns the gate state. A store that never recorded one
// reports an open gate.
func (s *Store) GetRateLimit(ctx context.Context) (*domain.RateLimitState, error) {
	var row rateLimitRow
	err := s.reader.GetContext(ctx, &row, `
		SELECT paused, limit_window, five_hour_pct, seven_day_pct, resets_at, updated_at
		FROM rate_limit_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.RateLimitState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}
	st := &domain.RateLimitState{
		ResetsAt:    row.ResetsAt,
		Window:      row.Window,
		FiveHourPct: row.FiveHourPct,
		SevenDayPct: row.SevenDayPct,
		Paused:      row.Paused,
	}
	if row.Updated != nil {
		st.Updated = *row.Updated
	}
	return st, nil
}

// PauseFeeding closes the gate until resetsAt.
func (s *Store) PauseFeeding(ctx context.Context, window string, resetsAt *time.Time, at time.Time) error {
	_, err := s.writer.ExecContext(ctx, `
		INSERT INTO rate_limit_state (id, paused, limit_window, resets_at, updated_at)
		VALUES (1, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			paused = 1, limit_window = excluded.limit_window,
			resets_at = excluded.resets_at, updated_at = excluded.updated_at`,
		window, resetsAt, at)
	if err != nil {
		return fmt.Errorf("pause feeding: %w", err)
	}
	return nil
}

// ResumeFeeding opens the gate.
func (s *Store) ResumeFeeding(ctx context.Context, at time.Time) error {
	_, err := s.writer.ExecContext(ctx, `
		INSERT INTO rate_limit_state (id, paused, limit_window, resets_at, updated_at)
		VALUES (1, 0, '', NULL, ?)
		ON CONFLICT(id) DO UPDATE SET
			paused = 0, limit_window = '', resets_at = NULL, updated_at = excluded.updated_at`,
		at)
	if err != nil {
		return fmt.Errorf("resume feeding: %w", err)
	}
	return nil
}

// UpdateUsage records usage percentages without touching the gate.
func (s *Store) UpdateUsage(ctx context.Context, u domain.UsageSnapshot, at time.Time) error {
	_, err := s.writer.ExecContext(ctx, `
		INSERT INTO rate_limit_state (id, five_hour_pct, seven_day_pct, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			five_hour_pct = excluded.five_hour_pct, seven_day_pct = excluded.seven_day_pct,
			updated_at = excluded.updated_at`,
		u.FiveHour.Percent, u.SevenDay.Percent, at)
	if err != nil {
		return fmt.Errorf("update usage: %w", err)
	}
	return nil
}
