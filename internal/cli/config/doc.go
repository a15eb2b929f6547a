// Package config provides CLI configuration for the Kinance client.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.kinance/cli.yaml)
//   - loader.go: Loading, validation and saving
//
// Configuration includes:
//
//   - API server address, version, timeout and client-side rate limit
//   - TLS trust roots and an optional client certificate
//   - Credential store location and optional at-rest encryption key
//   - Log level and format
//   - Proactive token refresh window
//   - Output format and shell history
package config
