package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/infra/confloader"
)

// ErrInvalidConfig is wrapped by all validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), "cli.yaml")
}

// Load loads CLI configuration. Sources are applied over Default() in the
// order file, KINANCE_* environment, overrides. A missing file is not an
// error.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	cfg, _, err := LoadSources(path, overrides)
	return cfg, err
}

// LoadSources is Load that also returns the loader, which reports the
// layer each key was set by.
func LoadSources(path string, overrides map[string]any) (*CLIConfig, *confloader.Loader, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOptionalFile(),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

// Validate checks the configuration values.
func (c *CLIConfig) Validate() error {
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("%w: output must be table, json or yaml, got %q", ErrInvalidConfig, c.Output)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("%w: api.timeout %q", ErrInvalidConfig, c.API.Timeout)
	}
	if c.API.RateLimit < 0 || c.API.Burst < 0 {
		return fmt.Errorf("%w: api.rate_limit and api.burst must not be negative", ErrInvalidConfig)
	}
	if tls := c.API.TLS; (tls.CertFile == "") != (tls.KeyFile == "") {
		return fmt.Errorf("%w: api.tls.cert_file and api.tls.key_file must be set together", ErrInvalidConfig)
	}
	if d, err := time.ParseDuration(c.Auth.RefreshSkew); err != nil || d < 0 {
		return fmt.Errorf("%w: auth.refresh_skew %q", ErrInvalidConfig, c.Auth.RefreshSkew)
	}

	if c.Store.EncryptionKey != "" {
		if _, err := credstore.ParseEncryptionKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("%w: store.encryption_key: %v", ErrInvalidConfig, err)
		}
	}
	if !c.Store.Ephemeral && c.Store.Dir == "" {
		return fmt.Errorf("%w: store.dir is required", ErrInvalidConfig)
	}

	return nil
}

// Save writes the configuration as YAML, readable by the owner only.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
