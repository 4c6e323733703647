// Package workflow advances audits through the configured processing stages.
//
// The Manager polls the store for actionable audits and feeds them into the
// registered stage handlers (acquisition, analysis) while capturing progress
// and failure metadata. Acquisition may park an audit as blocked instead of
// advancing it; retry and proceed decisions re-enter the pipeline through the
// store's guarded transitions, not through this package. The manager also
// aggregates audit stats, calls stage health checks, and emits notifications
// for completed, blocked, and failed audits.
//
// Add new lifecycle stages by extending StageSet, updating the status enums,
// and teaching the manager how to transition audits; this package is the
// authoritative home for that coordination logic.
package workflow
