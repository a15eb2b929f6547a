// Package command provides the kinance-cli command tree.
//
// Commands are built with urfave/cli/v2 and share one Runtime, created in
// the App's Before hook from the layered configuration:
//
//   - session.go: login, register, logout, status, whoami, refresh
//   - account.go: profile and family
//   - budget.go, transaction.go, receipt.go: finance resources
//   - config.go: effective configuration, its file path and init
//   - shell.go: the interactive shell
//
// Finance commands require a stored session and refresh the access token
// ahead of expiry when auth.refresh_skew allows it.
package command
