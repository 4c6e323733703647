// Package services holds cross-cutting helpers shared by pipeline stages:
// the error taxonomy with stage-aware wrapping, and context keys used to
// correlate log lines with audits, stages, and requests.
package services
