package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"locaudit/internal/api"
	"locaudit/internal/audit"
	"locaudit/internal/config"
	"locaudit/internal/logging"
	"locaudit/internal/notifications"
	"locaudit/internal/workflow"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *audit.Store
	workflow *workflow.Manager
	audits   *api.AuditService
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
	PID          int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *audit.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		audits:   api.NewAuditService(store, logger),
		logPath:  filepath.Join(cfg.Paths.LogDir, "locaudit.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another locaudit daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("locaudit daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("locaudit daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// SubmitAudit validates and enqueues a new audit.
func (d *Daemon) SubmitAudit(ctx context.Context, req api.CreateAuditRequest) (*api.AuditView, error) {
	return d.audits.Create(ctx, req)
}

// GetAudit returns one audit with its dimension results.
func (d *Daemon) GetAudit(ctx context.Context, id int64) (*api.AuditView, error) {
	return d.audits.Get(ctx, id)
}

// ListAudits returns a page of audits, newest first.
func (d *Daemon) ListAudits(ctx context.Context, owner string, offset, limit int) (*api.AuditPage, error) {
	return d.audits.List(ctx, owner, offset, limit)
}

// RetryAudit returns a blocked audit to pending.
func (d *Daemon) RetryAudit(ctx context.Context, id int64) (*api.AuditView, error) {
	return d.audits.Retry(ctx, id)
}

// ProceedAudit releases a blocked audit into analysis on partial evidence.
func (d *Daemon) ProceedAudit(ctx context.Context, id int64) (*api.AuditView, error) {
	return d.audits.Proceed(ctx, id)
}

// DeleteAudit removes an audit and its results.
func (d *Daemon) DeleteAudit(ctx context.Context, id int64) error {
	return d.audits.Delete(ctx, id)
}

// ListGlossaries returns system glossaries plus the owner's own.
func (d *Daemon) ListGlossaries(ctx context.Context, owner string) ([]api.GlossaryView, error) {
	return d.audits.ListGlossaries(ctx, owner)
}

// GetGlossary returns one glossary with its terms.
func (d *Daemon) GetGlossary(ctx context.Context, id int64) (*api.GlossaryView, error) {
	return d.audits.GetGlossary(ctx, id)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		Workflow:     summary,
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		PID:          os.Getpid(),
	}
}
