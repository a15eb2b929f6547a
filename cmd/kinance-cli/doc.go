// Package main provides the entry point for kinance-cli.
//
// kinance-cli is the Kinance family-finance client. It runs single
// commands or, started without one, an interactive shell:
//
//	kinance-cli login -e ada@example.com
//	kinance-cli budget list -o json
//	kinance-cli receipt upload lunch.jpg
//	kinance-cli
//
// Settings come from ~/.kinance/cli.yaml, KINANCE_* variables (also read
// from a .env file in the working directory) and the global flags.
package main
