package domain

import (
	"fmt"
	"strings"
)

// TaskDraft is a task to be created from an import file.
// Fields are ordered to minimize memory padding.
type TaskDraft struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Mode        string   `yaml:"mode"` // autonomous or supervised (default)
	Subtasks    []string `yaml:"subtasks"`
}

// TaskFile is the import file format:
//
//	tasks:
//	  - title: Add login page
//	    description: Use the existing form components.
//	    mode: autonomous
//	    subtasks:
//	      - Write the handler
//	      - Add tests
type TaskFile struct {
	Tasks []TaskDraft `yaml:"tasks"`
}

// Validate checks the draft and returns its parsed mode.
func (d *TaskDraft) Validate() (Mode, error) {
	if strings.TrimSpace(d.Title) == "" {
		return "", ErrEmptyTitle
	}
	mode, err := ParseMode(d.Mode)
	if err != nil {
		return "", err
	}
	for i, s := range d.Subtasks {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("subtask %d: %w", i+1, ErrEmptyTitle)
		}
	}
	return mode, nil
}
