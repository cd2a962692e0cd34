package ports

import "go.trai.ch/redirector/internal/core/domain"

// ConfigLoader defines the interface for loading the configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration found in baseDir.
	// Missing files and keys fall back to defaults.
	Load(baseDir string) (domain.Config, error)
}
