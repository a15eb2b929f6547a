// Package output renders command results for kinance-cli.
//
// Results are printed as an aligned table (the default), indented JSON or
// YAML. Table output reads `table` struct tags: "-" hides a field and
// "wide" shows it only with --wide. Field names come from `json` tags so
// the table headers line up with the API's own field names.
//
// Spinner and ProgressBar give feedback on stderr while a request such as
// a receipt upload is in flight.
package output
