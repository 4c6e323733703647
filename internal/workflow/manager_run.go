package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"locaudit/internal/audit"
	"locaudit/internal/logging"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "workflow-runner"))

	if reclaimed, err := m.store.ReclaimStale(ctx); err != nil {
		logger.Warn("reclaim stale audits failed; interrupted audits may stay stuck",
			logging.Error(err),
			logging.String(logging.FieldEventType, "reclaim_failed"))
	} else if reclaimed > 0 {
		logger.Info("reclaimed interrupted audits",
			logging.Int64("count", reclaimed),
			logging.String(logging.FieldEventType, "reclaim"))
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		a, err := m.nextAudit(ctx)
		if err != nil {
			m.handleNextAuditError(ctx, logger, err)
			continue
		}
		if a == nil {
			m.waitForAuditOrShutdown(ctx)
			continue
		}

		if err := m.processAudit(ctx, logger, a); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) nextAudit(ctx context.Context) (*audit.Audit, error) {
	m.mu.RLock()
	statuses := m.statusOrder
	m.mu.RUnlock()
	return m.store.NextForStatuses(ctx, statuses...)
}

func (m *Manager) handleNextAuditError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next audit",
		logging.Error(err),
		logging.String(logging.FieldEventType, "store_fetch_failed"))
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForAuditOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.pollInterval):
	}
}
