package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
)

const (
	defaultDirName  = ".cuimp"
	defaultFileName = "config.lua"
)

// DefaultPath returns ~/.cuimp/config.lua.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName, defaultFileName), nil
}

// ApplyEnv overlays CUIMP_* environment variables on cfg. Variables that are
// not set leave the corresponding field untouched.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}
	return nil
}

// Load reads the config file at path, or the default path when path is
// empty, then applies environment overrides. A missing default file is not
// an error; a missing explicit file is.
func Load(ctx context.Context, path string, detector platform.Detector, logger Logger) (*Config, error) {
	logger = OrNop(logger)

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			logger.Debug("no default config path", "error", err)
		}
	}

	cfg := &Config{}
	if path != "" {
		parsed, err := NewParser(detector).WithLogger(logger).ParseFile(ctx, path)
		switch {
		case err == nil:
			cfg = parsed
		case !explicit && errors.Is(err, os.ErrNotExist):
			logger.Debug("no config file", "path", path)
		default:
			return nil, err
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
