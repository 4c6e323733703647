// Package audit owns the persisted audit lifecycle: the SQLite-backed store
// for audits, their per-dimension results, and glossaries, plus the status
// and dimension vocabulary shared across the pipeline.
//
// Every stage transition is a single row update, so a polling reader always
// observes the audit at a completed stage boundary. Guarded transitions
// (retry/proceed from blocked) are enforced in SQL: a guard that matches no
// row reports an invalid transition without side effects.
package audit
