// Package buildinfo provides build information for the Kinance CLI.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// The version is also reported to the API through the User-Agent header.
package buildinfo
