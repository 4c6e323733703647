// Package daemonrun boots the locaudit daemon process: logging, storage,
// workflow stages, the IPC server, and signal handling.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"locaudit/internal/analyze"
	"locaudit/internal/audit"
	"locaudit/internal/config"
	"locaudit/internal/daemon"
	"locaudit/internal/glossary"
	"locaudit/internal/ipc"
	"locaudit/internal/logging"
	"locaudit/internal/notifications"
	"locaudit/internal/scrape"
	"locaudit/internal/services/judge"
	"locaudit/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the locaudit daemon runtime loop and blocks until the context is
// canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("locaudit-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update locaudit.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "locauditd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := audit.Open(cfg)
	if err != nil {
		logger.Error("open audit store", logging.Error(err))
		return err
	}
	defer store.Close()

	if seeded, err := store.SeedSystemGlossaries(signalCtx); err != nil {
		logger.Warn("seed system glossaries", logging.Error(err))
	} else if seeded > 0 {
		logger.Info("system glossaries seeded", logging.Int("count", seeded))
	}

	notifier := notifications.NewService(cfg)
	workflowManager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	registerStages(workflowManager, cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, workflowManager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"))
	}

	<-signalCtx.Done()
	logger.Info("locaudit daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *audit.Store, logger *slog.Logger) {
	if mgr == nil || cfg == nil {
		return
	}

	judgeClient := judge.NewClient(cfg.Judge)
	evaluator := analyze.NewEvaluator(judgeClient, logger)
	resolver := glossary.NewResolver(store)

	mgr.ConfigureStages(workflow.StageSet{
		Acquisition: scrape.NewStage(cfg, logger),
		Analysis:    analyze.NewStage(store, resolver, evaluator, judgeClient, logger),
	})
}

// ensureCurrentLogPointer keeps LogDir/locaudit.log pointing at the newest
// run-stamped log file.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "locaudit.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
