// Package repl provides the interactive shell of kinance-cli.
//
// The shell is the navigation layer of the client. It subscribes to the
// reactive session state and derives everything the user can do from the
// latest snapshot:
//
//   - signed out, only the auth screens (login, register) and public
//     commands are reachable
//   - signed in, the finance commands are reachable and login/register
//     are hidden
//
// The prompt shows who is signed in, and the shell announces every
// transition, including a session that ended because a token refresh
// failed.
package repl
