// Package apiclient is the HTTP client core for the Kinance REST API.
//
// Every call runs through one ordered pipeline of stages wrapped around the
// transport (outermost first):
//
//	request id -> normalize errors -> metrics -> rate limit -> refresh on 401 -> attach token -> transport
//
// The refresh stage resubmits a request at most once: the retry marker is set
// before the refresh call, and the refresh call itself is sent with
// SkipRefresh so a 401 from the refresh endpoint cannot recurse.
//
// Errors returned by Client methods are always *APIError.
package apiclient
