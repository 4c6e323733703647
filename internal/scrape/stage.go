package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"locaudit/internal/audit"
	"locaudit/internal/config"
	"locaudit/internal/content"
	"locaudit/internal/logging"
	"locaudit/internal/services"
	"locaudit/internal/stage"
)

const stageName = "acquisition"

// Stage acquires page evidence for an audit according to its acquisition
// mode. On success the audit carries extractions, aligned pairs, and snapshot
// paths; on a detected challenge it lands in the blocked state instead.
type Stage struct {
	cfg         *config.Config
	fetcher     *Fetcher
	snapshotter Snapshotter
	logger      *slog.Logger
}

// NewStage constructs the acquisition stage.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	return NewStageWithDeps(cfg, NewFetcher(cfg.Fetch), NewCommandSnapshotter(cfg.Snapshot), logger)
}

// NewStageWithDeps constructs the acquisition stage with explicit
// dependencies (used in tests).
func NewStageWithDeps(cfg *config.Config, fetcher *Fetcher, snapshotter Snapshotter, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{cfg: cfg, fetcher: fetcher, snapshotter: snapshotter, logger: logger}
}

// SetLogger swaps the stage logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Prepare resets acquisition progress before execution.
func (s *Stage) Prepare(_ context.Context, a *audit.Audit) error {
	a.SetProgress(0, 2, "Acquiring page evidence")
	return nil
}

// Execute gathers evidence for the audit. The workflow manager advances the
// audit into analysis afterwards unless Execute set blocked or failed.
func (s *Stage) Execute(ctx context.Context, a *audit.Audit) error {
	switch a.Acquisition {
	case audit.AcquireImageUpload:
		return s.executeImageUpload(a)
	case audit.AcquireScreenshot:
		return s.executeScreenshot(ctx, a)
	case audit.AcquireText, audit.AcquireAuto, audit.AcquireCombined, "":
		return s.executeFetch(ctx, a)
	default:
		return services.Wrap(services.ErrValidation, stageName, "select method",
			fmt.Sprintf("unknown acquisition mode %q", a.Acquisition), nil)
	}
}

// HealthCheck verifies the stage dependencies are usable.
func (s *Stage) HealthCheck(_ context.Context) stage.Health {
	if s.fetcher == nil {
		return stage.Unhealthy(stageName, "fetcher unavailable")
	}
	return stage.Healthy(stageName)
}

func (s *Stage) executeImageUpload(a *audit.Audit) error {
	images, err := a.Images()
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "decode images", "uploaded images are unreadable", err)
	}
	if len(images) == 0 {
		return services.Wrap(services.ErrValidation, stageName, "decode images", "image_upload audit has no images", nil)
	}
	a.ActualMethod = string(audit.AcquireImageUpload)
	a.SetProgress(2, 2, "Using uploaded images")
	s.logger.Info("acquisition complete",
		logging.String("method", a.ActualMethod),
		logging.Int("image_count", len(images)))
	return nil
}

func (s *Stage) executeScreenshot(ctx context.Context, a *audit.Audit) error {
	if s.snapshotter == nil || !s.snapshotter.Available() {
		return services.Wrap(services.ErrConfiguration, stageName, "capture snapshot",
			"screenshot mode requires a snapshot command", nil)
	}

	if a.Mode == audit.ModeComparison {
		path, err := s.captureSide(ctx, a, a.SourceURL, "source")
		if err != nil {
			return err
		}
		a.SourceSnapshot = path
	}
	path, err := s.captureSide(ctx, a, a.TargetURL, "target")
	if err != nil {
		return err
	}
	a.TargetSnapshot = path

	a.ActualMethod = string(audit.AcquireScreenshot)
	a.SetProgress(2, 2, "Snapshots captured")
	return nil
}

func (s *Stage) executeFetch(ctx context.Context, a *audit.Audit) error {
	var sourceExtraction *content.Extraction
	if a.Mode == audit.ModeComparison {
		extraction, blockedReason, err := s.fetchSide(ctx, a, a.SourceURL, "source")
		if err != nil {
			return err
		}
		if blockedReason != "" {
			return s.block(ctx, a, "source: "+blockedReason)
		}
		sourceExtraction = extraction
	}
	a.SetProgress(1, 2, "Source page acquired")

	targetExtraction, blockedReason, err := s.fetchSide(ctx, a, a.TargetURL, "target")
	if err != nil {
		return err
	}
	if blockedReason != "" {
		return s.block(ctx, a, blockedReason)
	}

	if a.Acquisition == audit.AcquireCombined {
		if err := s.captureCombined(ctx, a); err != nil {
			return err
		}
	}

	backfillLanguages(a, sourceExtraction, targetExtraction)

	if sourceExtraction != nil {
		if err := a.SetSourceContent(sourceExtraction); err != nil {
			return services.Wrap(services.ErrTransient, stageName, "store source content", "", err)
		}
	}
	if err := a.SetTargetContent(targetExtraction); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "store target content", "", err)
	}

	var pairs content.Pairs
	if a.Mode == audit.ModeComparison {
		pairs = content.Align(sourceExtraction, targetExtraction)
	} else {
		pairs = content.TargetOnly(targetExtraction)
	}
	if err := a.SetContentPairs(pairs); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "store content pairs", "", err)
	}

	if a.Acquisition == audit.AcquireCombined {
		a.ActualMethod = string(audit.AcquireCombined)
	} else {
		a.ActualMethod = string(audit.AcquireText)
	}
	a.SetProgress(2, 2, "Page evidence acquired")
	s.logger.Info("acquisition complete",
		logging.String("method", a.ActualMethod),
		logging.String("target_language", a.TargetLanguage))
	return nil
}

// fetchSide retrieves and extracts one page. The second return value carries
// a block reason when the response looks like a challenge interstitial.
func (s *Stage) fetchSide(ctx context.Context, a *audit.Audit, pageURL, side string) (*content.Extraction, string, error) {
	fetch := s.fetcher.Fetch
	if a.Acquisition == audit.AcquireText {
		// Text mode never reroutes to blocked, so an error page must fail
		// the fetch instead of being extracted as audit content.
		fetch = s.fetcher.FetchStrict
	}
	result, err := fetch(ctx, pageURL)
	if err != nil {
		return nil, "", services.Wrap(services.ErrFetch, stageName, "fetch "+side+" page", pageURL, err)
	}
	extraction, err := Extract(result.Body, result.FinalURL)
	if err != nil {
		return nil, "", services.Wrap(services.ErrFetch, stageName, "extract "+side+" page", pageURL, err)
	}

	// Explicit text mode trusts whatever came back; auto and combined run
	// challenge detection so blocks surface as blocked, not as bad scores.
	if a.Acquisition != audit.AcquireText {
		if reason, blocked := DetectBlock(result, extraction); blocked {
			return extraction, reason, nil
		}
	}
	if extraction.Empty() {
		return nil, "", services.Wrap(services.ErrFetch, stageName, "extract "+side+" page",
			"page produced no usable content", nil)
	}
	return extraction, "", nil
}

// block transitions the audit into the blocked state, capturing snapshot
// evidence first when a capture command is available so the user can proceed
// on visuals alone.
func (s *Stage) block(ctx context.Context, a *audit.Audit, reason string) error {
	if s.snapshotter != nil && s.snapshotter.Available() {
		if path, err := s.captureSide(ctx, a, a.TargetURL, "target"); err == nil {
			a.TargetSnapshot = path
		} else {
			s.logger.Warn("snapshot capture during block failed", logging.Error(err))
		}
	}
	a.SetBlocked(reason)
	s.logger.Info("acquisition blocked", logging.String("reason", reason))
	return nil
}

func (s *Stage) captureCombined(ctx context.Context, a *audit.Audit) error {
	if s.snapshotter == nil || !s.snapshotter.Available() {
		return services.Wrap(services.ErrConfiguration, stageName, "capture snapshot",
			"combined mode requires a snapshot command", nil)
	}
	if a.Mode == audit.ModeComparison {
		path, err := s.captureSide(ctx, a, a.SourceURL, "source")
		if err != nil {
			return err
		}
		a.SourceSnapshot = path
	}
	path, err := s.captureSide(ctx, a, a.TargetURL, "target")
	if err != nil {
		return err
	}
	a.TargetSnapshot = path
	return nil
}

func (s *Stage) captureSide(ctx context.Context, a *audit.Audit, pageURL, side string) (string, error) {
	outPath := filepath.Join(s.cfg.Paths.DataDir, "snapshots", fmt.Sprintf("audit-%d-%s.png", a.ID, side))
	if err := s.snapshotter.Capture(ctx, pageURL, outPath); err != nil {
		return "", services.Wrap(services.ErrFetch, stageName, "capture "+side+" snapshot", pageURL, err)
	}
	return outPath, nil
}

// backfillLanguages fills unset audit languages from the html lang attribute
// of the fetched pages. User-supplied values always win.
func backfillLanguages(a *audit.Audit, source, target *content.Extraction) {
	if strings.TrimSpace(a.TargetLanguage) == "" && target != nil {
		a.TargetLanguage = target.DetectedLanguage
	}
	if strings.TrimSpace(a.SourceLanguage) == "" && source != nil {
		a.SourceLanguage = source.DetectedLanguage
	}
}
