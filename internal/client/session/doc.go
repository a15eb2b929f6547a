// Package session provides the session manager for the Kinance client.
//
// The Manager owns the credential record lifecycle:
//
//   - Login / Register: authenticate and persist tokens plus profile as one record
//   - Logout: remove the record (best effort)
//   - Refresh: exchange the refresh token for a new access token
//   - IsAuthenticated / CurrentUser: read the cached session
//
// The HTTP client core refreshes on 401 independently of Manager.Refresh.
// Both paths write the same store; concurrent refreshes are last-write-wins.
package session
