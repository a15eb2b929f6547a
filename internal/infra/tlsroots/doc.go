// Package tlsroots builds the TLS settings for talking to a Kinance API
// that is not signed by a public CA.
//
//   - roots.go: system roots plus CA files or directories
//   - watcher.go: client certificate hot-reload via fsnotify
//
// A self-hosted server usually needs only api.tls.ca_file. Deployments
// behind a mutual-TLS gateway also set api.tls.cert_file and key_file;
// the certificate is re-read when it is rotated on disk, so a long shell
// session keeps working across renewals.
package tlsroots
