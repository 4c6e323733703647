package services

import "context"

type contextKey string

const (
	auditIDKey   contextKey = "audit_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithAuditID annotates the context with the audit identifier being processed.
func WithAuditID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, auditIDKey, id)
}

// AuditIDFromContext extracts the audit identifier, if present.
func AuditIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(auditIDKey).(int64)
	return id, ok
}

// WithStage annotates the context with the active stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts the active stage name, if present.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok
}

// WithRequestID annotates the context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}
