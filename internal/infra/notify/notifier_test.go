package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/infra/executor"
	"github.com/runoshun/agentdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shellQuote(tt.in), tt.in)
	}
}

func TestNotifier_Notify_RunsCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	n, err := NewNotifier("printf '%s' {{.Title}} > "+out, executor.NewClient(), domain.NopLogger{})
	require.NoError(t, err)

	n.Notify("Fix `login`; it's $(broken)")
	n.Wait()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Fix `login`; it's $(broken)", string(data))
}

func TestNotifier_Notify_FailureLogged(t *testing.T) {
	logger := &testutil.RecordingLogger{}
	n, err := NewNotifier("exit 3", executor.NewClient(), logger)
	require.NoError(t, err)

	n.Notify("x")
	n.Wait()

	logged := logger.Logged()
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "WARN")
	assert.Contains(t, logged[0], "exit status 3")
}

func TestNotifier_Disabled(t *testing.T) {
	logger := &testutil.RecordingLogger{}
	n, err := NewNotifier("  ", executor.NewClient(), logger)
	require.NoError(t, err)

	n.Notify("x")
	n.Wait()
	assert.Empty(t, logger.Logged())
}

func TestNewNotifier_InvalidTemplate(t *testing.T) {
	_, err := NewNotifier("echo {{.Title", executor.NewClient(), domain.NopLogger{})
	assert.Error(t, err)
}
