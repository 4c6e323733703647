package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"locaudit/internal/audit"
	"locaudit/internal/logging"
	"locaudit/internal/services"
)

func (m *Manager) processAudit(ctx context.Context, runLogger *slog.Logger, a *audit.Audit) error {
	stg, ok := m.stageForStatus(a.Status)
	if !ok {
		runLogger.Warn("no stage configured for status", logging.String("status", string(a.Status)))
		m.waitForAuditOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, stg.name, a, requestID)
	stageLogger := logging.WithContext(stageCtx, runLogger)
	if aware, ok := stg.handler.(loggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if err := m.transitionToProcessing(stageCtx, stg, a); err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			stageLogger.Debug("audit removed before processing started")
			return nil
		}
		stageLogger.Error("failed to transition audit to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, a)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, a *audit.Audit) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("mode", string(a.Mode)),
		logging.String("target_url", a.TargetURL))

	handler := stg.handler
	if handler == nil {
		stageLogger.Warn("missing stage handler", logging.String(logging.FieldStage, stg.name))
		a.SetFailed(fmt.Sprintf("stage %s missing handler", stg.name))
		if err := m.store.Update(ctx, a); err != nil && !errors.Is(err, audit.ErrNotFound) {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		err := errors.New("stage handler unavailable")
		m.setLastError(err)
		return err
	}

	if err := handler.Prepare(ctx, a); err != nil {
		m.handleStageFailure(ctx, stg.name, a, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, a); err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			stageLogger.Debug("audit removed during stage preparation")
			return nil
		}
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if execErr := handler.Execute(ctx, a); execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		if errors.Is(execErr, audit.ErrNotFound) {
			stageLogger.Info("audit removed mid-stage, discarding work",
				logging.String(logging.FieldEventType, "audit_removed"))
			return nil
		}
		m.handleStageFailure(ctx, stg.name, a, execErr)
		m.setLastError(execErr)
		return execErr
	}

	// Stages may park the audit themselves (blocked, failed); only advance
	// those still marked as processing.
	if a.Status == stg.processingStatus || a.Status == "" {
		a.Status = stg.doneStatus
	}
	if err := m.store.Update(ctx, a); err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			stageLogger.Debug("audit removed before stage result persisted")
			return nil
		}
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(a.Status)),
		logging.String("progress_message", a.ProgressMessage),
		logging.Duration("stage_duration", time.Since(stageStart)))
	m.setLastAudit(a)

	switch a.Status {
	case audit.StatusCompleted:
		m.notifyCompleted(ctx, stageLogger, a)
	case audit.StatusBlocked:
		m.notifyBlocked(ctx, stageLogger, a)
	}
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, a *audit.Audit) error {
	a.Status = stg.processingStatus
	a.ErrorMessage = ""
	if err := m.store.Update(ctx, a); err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			return err
		}
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastAudit(a)
	return nil
}

func withStageContext(ctx context.Context, stageName string, a *audit.Audit, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if a != nil {
		ctx = services.WithAuditID(ctx, a.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}
