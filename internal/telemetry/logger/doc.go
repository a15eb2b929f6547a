// Package logger provides structured logging for the Kinance client.
//
// It wraps log/slog and is organised as:
//
//   - logger.go: Logger interface, handler setup and the process-wide default
//   - context.go: context propagation of the logger and request IDs
//   - redact.go: masking of credentials before they reach a sink
//
// The CLI logs to stderr in text format at warn level by default, so normal
// command output on stdout stays clean.
package logger
