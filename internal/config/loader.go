package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = ".modelcard.yaml"
	// UserConfigDir is the directory for user-level config, relative to home.
	UserConfigDir = ".config/modelcard"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
//  1. Default config
//  2. User config (~/.config/modelcard/config.yaml)
//  3. Project config (.modelcard.yaml in dir)
//  4. The explicit file, when non-empty
//
// A missing user or project file is skipped; a missing explicit file is an
// error. The merged result is validated.
func (l *Loader) Load(dir, explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath := l.userConfigPath(); userPath != "" {
		if layer, err := readLayer(userPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userPath))
			cfg.Merge(layer)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userPath), slog.String("error", err.Error()))
		}
	}

	if dir == "" {
		dir = "."
	}
	projectPath := filepath.Join(dir, ProjectConfigFile)
	if layer, err := readLayer(projectPath); err == nil {
		l.logger.Debug("Loaded project config", slog.String("path", projectPath))
		cfg.Merge(layer)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	} else {
		l.logger.Debug("No project config found", slog.String("dir", dir))
	}

	if explicit != "" {
		layer, err := readLayer(explicit)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: %s: %w", explicit, err)
			}
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicit))
		cfg.Merge(layer)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// userConfigPath returns the path to the user config file.
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
