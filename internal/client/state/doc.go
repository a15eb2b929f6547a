// Package state holds the process-wide reactive session state.
//
// A Store publishes Snapshot values {User, IsAuthenticated, IsLoading} to
// its subscribers. It is the only signal the navigation layer (the CLI
// shell) uses to choose between the authenticated and the unauthenticated
// command tree.
//
// Transitions are single-writer by convention: callers must not overlap
// Login, Register, Logout and CheckAuthStatus. IsLoading is set while a
// transition runs so front ends can refuse new input.
package state
