// Package notifications delivers audit lifecycle events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Each event category (completed, blocked, errors) can be toggled
// independently so workflow code never has to check configuration itself.
package notifications
