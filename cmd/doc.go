// Package cmd implements the command-line interface for flaxkv. It
// provides a hierarchical command structure with operations for running
// the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (put, get, delete, etc.)
//   - serve: Commands for starting and configuring the flaxkv server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See flaxkv -help for a list of all commands.
package cmd
