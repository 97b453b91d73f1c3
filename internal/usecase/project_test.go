package usecase_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddProject(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewAddProject(e.store, e.clock, e.logger)
	repo := t.TempDir()

	tests := []struct {
		name    string
		in      usecase.AddProjectInput
		wantErr error
	}{
		{"empty name", usecase.AddProjectInput{Name: "  ", RepoPath: repo}, domain.ErrEmptyName},
		{"path separator", usecase.AddProjectInput{Name: "a/b", RepoPath: repo}, domain.ErrInvalidName},
		{"dot dot", usecase.AddProjectInput{Name: "..", RepoPath: repo}, domain.ErrInvalidName},
		{"missing path", usecase.AddProjectInput{Name: "demo", RepoPath: filepath.Join(repo, "nope")}, domain.ErrInvalidRepoPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	out, err := uc.Execute(context.Background(), usecase.AddProjectInput{Name: " demo ", RepoPath: repo})
	require.NoError(t, err)
	assert.Equal(t, "demo", out.Project.Name)
	assert.Equal(t, repo, out.Project.RepoPath)
	assert.NotZero(t, out.Project.ID)

	_, err = uc.Execute(context.Background(), usecase.AddProjectInput{Name: "demo", RepoPath: repo})
	assert.ErrorIs(t, err, domain.ErrProjectExists)

	list, err := usecase.NewListProjects(e.store).Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "demo", list.Projects[0].Name)
}
