package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	homeDir       string // Path to the agentdeck home directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/agentdeck)
}

// NewManager creates a new Manager.
func NewManager(homeDir string) *Manager {
	return &Manager{
		homeDir:       homeDir,
		globalConfDir: DefaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(homeDir, globalConfDir string) *Manager {
	return &Manager{
		homeDir:       homeDir,
		globalConfDir: globalConfDir,
	}
}

// GetHomeConfigInfo returns information about the home config file.
func (m *Manager) GetHomeConfigInfo() domain.ConfigInfo {
	return getConfigInfo(domain.HomeConfigPath(m.homeDir))
}

// GetGlobalConfigInfo returns information about the global config file.
func (m *Manager) GetGlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return getConfigInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

// getConfigInfo reads a config file and returns its info.
func getConfigInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{Path: path}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitHomeConfig creates the home config file with the default template.
func (m *Manager) InitHomeConfig(cfg *domain.Config) (string, error) {
	path := domain.HomeConfigPath(m.homeDir)
	return path, initConfig(path, cfg)
}

// InitGlobalConfig creates the global config file with the default template.
func (m *Manager) InitGlobalConfig(cfg *domain.Config) (string, error) {
	if m.globalConfDir == "" {
		return "", errors.New("global config directory not available")
	}
	path := filepath.Join(m.globalConfDir, domain.ConfigFileName)
	return path, initConfig(path, cfg)
}

// initConfig creates a config file with default template.
func initConfig(path string, cfg *domain.Config) error {
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(domain.RenderConfigTemplate(cfg)), 0o600)
}
