package commands

import (
	"github.com/mosaicnetworks/routing/src/config"
)

// CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Routing config.Config `mapstructure:",squash"`
}

// NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Routing: *config.NewDefaultConfig(),
	}
}
