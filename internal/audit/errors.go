package audit

import "errors"

// ErrNotFound reports that the requested audit or glossary does not exist.
// Deletes and stage completions against a removed audit surface this so
// callers can treat the row vanishing as a cooperative cancellation.
var ErrNotFound = errors.New("audit not found")

// ErrInvalidTransition reports a state change the audit's current status
// does not permit, such as retrying an audit that is not blocked.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNoEvidence reports a blocked audit that captured neither a snapshot nor
// extracted content, leaving proceed nothing to analyze.
var ErrNoEvidence = errors.New("no captured evidence")
