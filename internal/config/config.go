package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// configPathEnv points at an optional TOML config file; environment
// variables override whatever the file sets
const configPathEnv = "WALLTAB_CONFIG"

// AppConfig holds application configuration
type AppConfig struct {
	// StoragePath is the sqlite settings database location
	StoragePath string `env:"WALLTAB_STORAGE_PATH" toml:"storage_path"`
	// CacheDir holds transient image references
	CacheDir string `env:"WALLTAB_CACHE_DIR" toml:"cache_dir"`
	// Locale selects the message table
	Locale string `env:"WALLTAB_LOCALE" toml:"locale"`
	// Debug enables verbose logging regardless of the stored debug key
	Debug bool `env:"WALLTAB_DEBUG" toml:"debug"`
}

// NewAppConfig loads the optional config file, overlays the environment
// and fills in platform defaults
func NewAppConfig(logger *zap.Logger) (*AppConfig, error) {
	cfg := &AppConfig{}

	if path := os.Getenv(configPathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.StoragePath == "" {
		cfg.StoragePath = filepath.Join(baseDir(os.UserConfigDir), "walltab", "settings.db")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "walltab")
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.Info("Configuration loaded",
		zap.String("storagePath", cfg.StoragePath),
		zap.String("cacheDir", cfg.CacheDir),
		zap.String("locale", cfg.Locale),
		zap.Bool("debug", cfg.Debug))

	return cfg, nil
}

// baseDir resolves a user directory, falling back to the temp dir when the
// platform cannot provide one
func baseDir(resolve func() (string, error)) string {
	dir, err := resolve()
	if err != nil {
		return os.TempDir()
	}
	return dir
}
