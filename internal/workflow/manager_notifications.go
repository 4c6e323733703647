package workflow

import (
	"context"
	"errors"
	"log/slog"

	"locaudit/internal/audit"
	"locaudit/internal/logging"
)

func (m *Manager) notifyCompleted(ctx context.Context, logger *slog.Logger, a *audit.Audit) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.AuditCompleted(ctx, a); err != nil {
		logNotifyError(logger, "completed", err)
	}
}

func (m *Manager) notifyBlocked(ctx context.Context, logger *slog.Logger, a *audit.Audit) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.AuditBlocked(ctx, a); err != nil {
		logNotifyError(logger, "blocked", err)
	}
}

func (m *Manager) notifyFailed(ctx context.Context, logger *slog.Logger, a *audit.Audit, stageName string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.AuditFailed(ctx, a, stageName); err != nil {
		logNotifyError(logger, "failed", err)
	}
}

func logNotifyError(logger *slog.Logger, event string, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Debug("daemon shutting down, could not send notification")
		return
	}
	logger.Debug("notification failed",
		logging.String("event", event),
		logging.Error(err))
}
