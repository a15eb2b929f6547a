// Package confloader provides configuration loading mechanism.
//
// This package implements a layered configuration loader on top of koanf.
//
// Features:
//
//   - Multiple Sources: YAML files, environment variables, maps (flags)
//   - Dotenv: a .env file can seed the process environment
//   - Type Safety: Unmarshaling into koanf-tagged structs
//   - Provenance: Source reports which layer set a key
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables
//  3. Configuration file
//  4. Default values
//
// Environment variables use a double underscore as the nesting separator
// so that keys may contain single underscores:
//
//	KINANCE_API__BASE_URL -> api.base_url
package confloader
