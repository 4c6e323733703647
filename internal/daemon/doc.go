// Package daemon coordinates the long-running locaudit process.
//
// It wires configuration, the audit store, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances,
// and exposes the audit operations the IPC layer serves to the CLI.
//
// Keep orchestration logic here: individual pipeline stages live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
