// Package seed prepares a fresh workspace for the agent: merged
// instructions, automation hooks and the MCP server registration.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Files written into every workspace.
const (
	InstructionsFile = "CLAUDE.local.md"
	RepoInstructions = "CLAUDE.md"
	MCPConfigFile    = ".mcp.json"
	HooksDir         = ".claude/hooks"

	fragmentName = "instructions.md"
	mcpServerKey = "agentdeck"
)

// Seeder implements domain.WorkspaceSeeder.
// Fields are ordered to minimize memory padding.
type Seeder struct {
	executor   domain.CommandExecutor
	configDir  string // Global config directory holding instructions.md, hooks/ and projects/
	executable string // deck binary registered as MCP server
}

// NewSeeder creates a new Seeder.
func NewSeeder(executor domain.CommandExecutor, configDir, executable string) *Seeder {
	return &Seeder{
		executor:   executor,
		configDir:  configDir,
		executable: executable,
	}
}

// Ensure Seeder implements domain.WorkspaceSeeder interface.
var _ domain.WorkspaceSeeder = (*Seeder)(nil)

// Seed writes the generated files into workspace and hides them from git.
func (s *Seeder) Seed(workspace string, project *domain.Project) error {
	var generated []string

	wrote, err := s.writeInstructions(workspace, project)
	if err != nil {
		return fmt.Errorf("write instructions: %w", err)
	}
	if wrote {
		generated = append(generated, "/"+InstructionsFile)
	}

	copied, err := s.copyHooks(workspace, project)
	if err != nil {
		return fmt.Errorf("copy hooks: %w", err)
	}
	if copied {
		generated = append(generated, "/"+HooksDir+"/")
	}

	wrote, err = s.writeMCPConfig(workspace)
	if err != nil {
		return fmt.Errorf("write mcp config: %w", err)
	}
	if wrote {
		generated = append(generated, "/"+MCPConfigFile)
	}

	if len(generated) == 0 {
		return nil
	}
	if err := s.exclude(workspace, generated); err != nil {
		return fmt.Errorf("exclude generated files: %w", err)
	}
	return nil
}

func (s *Seeder) projectDir(project *domain.Project) string {
	return filepath.Join(s.configDir, "projects", project.Name)
}

// writeInstructions concatenates the global, project and repository
// fragments in that order. Missing fragments are skipped.
func (s *Seeder) writeInstructions(workspace string, project *domain.Project) (bool, error) {
	sources := []string{
		filepath.Join(s.configDir, fragmentName),
		filepath.Join(s.projectDir(project), fragmentName),
		filepath.Join(workspace, RepoInstructions),
	}

	var parts []string
	for _, path := range sources {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return false, err
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return false, nil
	}

	content := strings.Join(parts, "\n\n") + "\n"
	return true, os.WriteFile(filepath.Join(workspace, InstructionsFile), []byte(content), 0o644)
}

// copyHooks copies global hooks, then project hooks, so a project file
// replaces the global file of the same name.
func (s *Seeder) copyHooks(workspace string, project *domain.Project) (bool, error) {
	dst := filepath.Join(workspace, filepath.FromSlash(HooksDir))
	copied := false
	for _, src := range []string{
		filepath.Join(s.configDir, "hooks"),
		filepath.Join(s.projectDir(project), "hooks"),
	} {
		n, err := copyTree(src, dst)
		if err != nil {
			return false, err
		}
		copied = copied || n > 0
	}
	return copied, nil
}

// copyTree copies every regular file under src into dst, keeping modes.
// A missing src copies nothing.
func copyTree(src, dst string) (int, error) {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		count++
		return copyFile(path, target, info.Mode().Perm())
	})
	return count, err
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile applies the umask; hooks must keep their exec bits.
	return os.Chmod(dst, mode)
}

type mcpServer struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type mcpConfig struct {
	Servers map[string]mcpServer `json:"mcpServers"`
}

// writeMCPConfig registers "deck mcp" unless the repository ships its own file.
func (s *Seeder) writeMCPConfig(workspace string) (bool, error) {
	path := filepath.Join(workspace, MCPConfigFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	cfg := mcpConfig{Servers: map[string]mcpServer{
		mcpServerKey: {Command: s.executable, Args: []string{"mcp"}},
	}}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, append(data, '\n'), 0o644)
}

// exclude appends patterns missing from the shared info/exclude file.
func (s *Seeder) exclude(workspace string, patterns []string) error {
	out, err := s.executor.Execute(context.Background(), &domain.ExecCommand{
		Program: "git",
		Args:    []string{"rev-parse", "--git-common-dir"},
		Dir:     workspace,
	})
	if err != nil {
		return fmt.Errorf("resolve git common dir: %w", err)
	}
	commonDir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(workspace, commonDir)
	}
	path := filepath.Join(commonDir, "info", "exclude")

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var add strings.Builder
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		add.WriteString("\n")
	}
	for _, p := range patterns {
		if !present[p] {
			add.WriteString(p + "\n")
		}
	}
	if strings.TrimSpace(add.String()) == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(add.String()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
