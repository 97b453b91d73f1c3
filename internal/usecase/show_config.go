package usecase

import (
	"context"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ShowConfigInput contains the input for the ShowConfig use case.
type ShowConfigInput struct {
	Effective *domain.Config // Merged configuration, rendered when set
	Template  bool           // Render the default template instead of the files
}

// ShowConfigOutput contains the output of the ShowConfig use case.
type ShowConfigOutput struct {
	GlobalConfig domain.ConfigInfo // Global config file info
	HomeConfig   domain.ConfigInfo // Home config file info
	Rendered     string            // Template or effective configuration
}

// ShowConfig displays configuration file information.
type ShowConfig struct {
	configManager domain.ConfigManager
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(configManager domain.ConfigManager) *ShowConfig {
	return &ShowConfig{
		configManager: configManager,
	}
}

// Execute retrieves configuration file information.
func (uc *ShowConfig) Execute(_ context.Context, in ShowConfigInput) (*ShowConfigOutput, error) {
	if in.Template {
		return &ShowConfigOutput{Rendered: domain.RenderConfigTemplate(domain.NewDefaultConfig())}, nil
	}
	out := &ShowConfigOutput{
		GlobalConfig: uc.configManager.GetGlobalConfigInfo(),
		HomeConfig:   uc.configManager.GetHomeConfigInfo(),
	}
	if in.Effective != nil {
		out.Rendered = domain.RenderConfigTemplate(in.Effective)
	}
	return out, nil
}
