// Package analyze runs the judged evaluation of an audit: it builds
// per-dimension prompts from the acquired evidence, validates the judgment
// responses, and aggregates dimension scores into the overall result.
package analyze
