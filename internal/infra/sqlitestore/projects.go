package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

const projectColumns = `id, name, repo_path, created_at`

// CreateProject inserts a project and sets its ID.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	res, err := s.writer.ExecContext(ctx,
		`INSERT INTO projects (name, repo_path, created_at) VALUES (?, ?, ?)`,
		p.Name, p.RepoPath, p.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrProjectExists, p.Name)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read project id: %w", err)
	}
	p.ID = id
	return nil
}

// GetProject returns nil if not found.
func (s *Store) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	err := s.reader.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &p, nil
}

// GetProjectByName returns nil if not found.
func (s *Store) GetProjectByName(ctx context.Context, name string) (*domain.Project, error) {
	var p domain.Project
	err := s.reader.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %q: %w", name, err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	var projects []*domain.Project
	if err := s.reader.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes the project. Tasks, subtasks and sessions cascade.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.writer.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProjectNotFound
	}
	return nil
}
