// Package metric provides Prometheus metrics for the Kinance client.
//
// The CLI is short-lived, so metrics are not scraped. Instead a run can
// write its registry to a node-exporter textfile (see WriteTextfile), which
// lets a host agent pick up request and token refresh counts.
package metric
