// Package api exposes the audit operations consumed by the CLI and the IPC
// layer: submit, get, list, retry, proceed, delete, plus glossary lookups.
//
// The service validates requests per audit mode before any state is created
// and converts store records into transport-friendly views with JSON tags so
// the same shapes serve table rendering and JSON-RPC responses.
package api
