package scrape

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"locaudit/internal/config"
)

// Snapshotter captures a visual snapshot of a page to the given file.
type Snapshotter interface {
	Capture(ctx context.Context, pageURL, outPath string) error
	Available() bool
}

// CommandSnapshotter shells out to a configured capture command. The command
// receives the URL as its final argument and must write a PNG to the path in
// the LOCAUDIT_SNAPSHOT_OUT environment variable.
type CommandSnapshotter struct {
	cfg config.Snapshot
}

// NewCommandSnapshotter constructs a snapshotter from configuration.
func NewCommandSnapshotter(cfg config.Snapshot) *CommandSnapshotter {
	return &CommandSnapshotter{cfg: cfg}
}

// Available reports whether a capture command is configured.
func (s *CommandSnapshotter) Available() bool {
	return s != nil && strings.TrimSpace(s.cfg.Command) != ""
}

// Capture runs the configured command and verifies the output file exists.
func (s *CommandSnapshotter) Capture(ctx context.Context, pageURL, outPath string) error {
	if !s.Available() {
		return errors.New("snapshot: no capture command configured")
	}
	if strings.TrimSpace(pageURL) == "" {
		return errors.New("snapshot: url required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}

	timeout := 60 * time.Second
	if s.cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(s.cfg.TimeoutSeconds) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parts := strings.Fields(s.cfg.Command)
	args := append(parts[1:], pageURL)
	cmd := exec.CommandContext(runCtx, parts[0], args...)
	cmd.Env = append(os.Environ(), "LOCAUDIT_SNAPSHOT_OUT="+outPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("snapshot command: %w: %s", err, detail)
		}
		return fmt.Errorf("snapshot command: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("snapshot output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("snapshot output is empty")
	}
	return nil
}
