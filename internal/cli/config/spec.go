package config

import (
	"os"
	"path/filepath"
	"time"
)

// CLIConfig is the configuration for kinance-cli.
type CLIConfig struct {
	API     APIConfig     `koanf:"api" yaml:"api"`
	Store   StoreConfig   `koanf:"store" yaml:"store"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Auth    AuthConfig    `koanf:"auth" yaml:"auth"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics"`
	Shell   ShellConfig   `koanf:"shell" yaml:"shell"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output" yaml:"output"`
}

// APIConfig configures the HTTP client core.
type APIConfig struct {
	BaseURL   string  `koanf:"base_url" yaml:"base_url"`
	Version   string  `koanf:"version" yaml:"version"`
	Timeout   string  `koanf:"timeout" yaml:"timeout"`
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit,omitempty"`
	Burst     int     `koanf:"burst" yaml:"burst,omitempty"`

	TLS TLSConfig `koanf:"tls" yaml:"tls,omitempty"`
}

// TLSConfig adds trust roots or a client certificate for the API
// connection. Empty fields keep the system defaults.
type TLSConfig struct {
	CAFile   string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	CADir    string `koanf:"ca_dir" yaml:"ca_dir,omitempty"`
	CertFile string `koanf:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile  string `koanf:"key_file" yaml:"key_file,omitempty"`
}

// StoreConfig configures the credential store.
type StoreConfig struct {
	Dir       string `koanf:"dir" yaml:"dir"`
	Namespace string `koanf:"namespace" yaml:"namespace"`

	// EncryptionKey is a hex-encoded 32-byte key. Empty stores values in clear.
	EncryptionKey string `koanf:"encryption_key" yaml:"encryption_key,omitempty"`

	// Ephemeral keeps credentials in memory for this process only.
	Ephemeral bool `koanf:"ephemeral" yaml:"ephemeral,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// AuthConfig configures session handling.
type AuthConfig struct {
	// RefreshSkew refreshes the access token proactively when it expires
	// within this window. "0" disables proactive refresh.
	RefreshSkew string `koanf:"refresh_skew" yaml:"refresh_skew"`
}

// MetricsConfig configures the metrics dump.
type MetricsConfig struct {
	// Textfile receives the client metrics in Prometheus text format at exit.
	Textfile string `koanf:"textfile" yaml:"textfile,omitempty"`
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	HistoryFile string `koanf:"history_file" yaml:"history_file"`
	HistorySize int    `koanf:"history_size" yaml:"history_size"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	home := homeDir()
	return &CLIConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Version: "v1",
			Timeout: "10s",
		},
		Store: StoreConfig{
			Dir:       filepath.Join(home, "credentials"),
			Namespace: "kinance",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Auth: AuthConfig{
			RefreshSkew: "1m",
		},
		Shell: ShellConfig{
			HistoryFile: filepath.Join(home, "history"),
			HistorySize: 1000,
		},
		Output: "table",
	}
}

// TimeoutDuration returns the parsed API timeout.
func (c *APIConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RefreshSkewDuration returns the parsed refresh window.
func (c *AuthConfig) RefreshSkewDuration() time.Duration {
	d, _ := time.ParseDuration(c.RefreshSkew)
	return d
}

// homeDir is the per-user configuration directory (~/.kinance).
func homeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kinance")
}
