package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"locaudit/internal/audit"
	"locaudit/internal/logging"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, a *audit.Audit, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := classifyStageFailure(stageName, stageErr)
	a.SetFailed(message)

	logger.Error("stage failed",
		logging.String("error_message", message),
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"))

	if err := m.store.Update(ctx, a); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Debug("daemon shutting down, could not update stage failure")
		case errors.Is(err, audit.ErrNotFound):
			logger.Debug("audit removed, stage failure not recorded")
			return
		default:
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastAudit(a)
	m.notifyFailed(ctx, logger, a, stageName)
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		if stageName != "" {
			return fmt.Sprintf("%s failed without error detail", stageName)
		}
		return "workflow failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}
