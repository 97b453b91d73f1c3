package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ErrNoLogFile is returned when nothing has been logged yet.
var ErrNoLogFile = errors.New("no log file")

// ShowLogsInput contains the parameters for showing logs.
type ShowLogsInput struct {
	TaskID int64 // Task to show logs for, 0 for the global log
	Lines  int   // Number of lines to display from the end (0 = all)
}

// ShowLogsOutput contains the result of showing logs.
type ShowLogsOutput struct {
	LogPath string // Path to the log file
	Content string // Log file content
}

// ShowLogs is the use case for viewing the global or a task log.
type ShowLogs struct {
	tasks domain.TaskRepository
	home  string
}

// NewShowLogs creates a new ShowLogs use case.
func NewShowLogs(tasks domain.TaskRepository, home string) *ShowLogs {
	return &ShowLogs{
		tasks: tasks,
		home:  home,
	}
}

// Execute reads and returns the log content.
func (uc *ShowLogs) Execute(ctx context.Context, in ShowLogsInput) (*ShowLogsOutput, error) {
	logPath := domain.GlobalLogPath(uc.home)
	if in.TaskID != 0 {
		task, err := requireTask(ctx, uc.tasks, in.TaskID)
		if err != nil {
			return nil, err
		}
		logPath = domain.TaskLogPath(uc.home, task.ID)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoLogFile, logPath)
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}

	// If lines is specified, get only the last N lines
	result := strings.TrimSuffix(string(content), "\n")
	if in.Lines > 0 {
		lines := strings.Split(result, "\n")
		if len(lines) > in.Lines {
			lines = lines[len(lines)-in.Lines:]
		}
		result = strings.Join(lines, "\n")
	}

	return &ShowLogsOutput{
		LogPath: logPath,
		Content: result,
	}, nil
}
