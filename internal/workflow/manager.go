package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"locaudit/internal/audit"
	"locaudit/internal/config"
	"locaudit/internal/notifications"
	"locaudit/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Acquisition stage.Handler
	Analysis    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      audit.Status
	processingStatus audit.Status
	doneStatus       audit.Status
}

// loggerAware lets stage handlers receive the per-audit logger before a run.
type loggerAware interface {
	SetLogger(*slog.Logger)
}

// Manager coordinates audit processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *audit.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration

	stages       []pipelineStage
	stageByStart map[audit.Status]pipelineStage
	statusOrder  []audit.Status

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastAudit *audit.Audit
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *audit.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *audit.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage
	if set.Acquisition != nil {
		stages = append(stages, pipelineStage{
			name:             "acquisition",
			handler:          set.Acquisition,
			startStatus:      audit.StatusPending,
			processingStatus: audit.StatusScraping,
			doneStatus:       audit.StatusAnalyzing,
		})
	}
	if set.Analysis != nil {
		stages = append(stages, pipelineStage{
			name:             "analysis",
			handler:          set.Analysis,
			startStatus:      audit.StatusAnalyzing,
			processingStatus: audit.StatusAnalyzing,
			doneStatus:       audit.StatusCompleted,
		})
	}

	stageByStart := make(map[audit.Status]pipelineStage, len(stages))
	statusOrder := make([]audit.Status, 0, len(stages))
	for _, stg := range stages {
		stageByStart[stg.startStatus] = stg
		statusOrder = append(statusOrder, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = stageByStart
	m.statusOrder = statusOrder
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status audit.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastAudit(a *audit.Audit) {
	m.mu.Lock()
	if a != nil {
		copied := *a
		m.lastAudit = &copied
	} else {
		m.lastAudit = nil
	}
	m.mu.Unlock()
}
