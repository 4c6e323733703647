package analyze

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"locaudit/internal/audit"
	"locaudit/internal/content"
	"locaudit/internal/logging"
	"locaudit/internal/services"
	"locaudit/internal/stage"
)

const stageName = "analysis"

// Total progress checkpoints reported while analyzing.
const progressTotal = 4

type resolver interface {
	Resolve(ctx context.Context, a *audit.Audit) (*audit.Glossary, error)
}

type store interface {
	Update(ctx context.Context, a *audit.Audit) error
	ReplaceResults(ctx context.Context, auditID int64, results []audit.DimensionResult) error
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Stage judges an audit's acquired evidence across its mode's dimensions and
// persists the scored report.
type Stage struct {
	store     store
	resolver  resolver
	evaluator *Evaluator
	health    healthChecker
	logger    *slog.Logger
	now       func() time.Time
}

// NewStage constructs the analysis stage.
func NewStage(s store, r resolver, evaluator *Evaluator, health healthChecker, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{store: s, resolver: r, evaluator: evaluator, health: health, logger: logger, now: time.Now}
}

// SetLogger swaps the stage logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Prepare resets analysis progress before execution.
func (s *Stage) Prepare(_ context.Context, a *audit.Audit) error {
	a.SetProgress(1, progressTotal, "Initializing analysis")
	return nil
}

// Execute runs the full judged evaluation. Progress is checkpointed to the
// store between phases; a zero-row update means the audit was deleted while
// analyzing and the work stops without a failure record.
func (s *Stage) Execute(ctx context.Context, a *audit.Audit) error {
	pairs, images, err := s.loadEvidence(a)
	if err != nil {
		return err
	}

	a.SetProgress(2, progressTotal, "Resolving glossary")
	if err := s.checkpoint(ctx, a); err != nil {
		return err
	}
	resolved, err := s.resolver.Resolve(ctx, a)
	if err != nil {
		return err
	}

	dimensions := audit.DimensionsFor(a.Mode)
	in := PromptInput{
		Audit:    a,
		Pairs:    pairs,
		Glossary: resolved,
		HasImage: len(images) > 0,
	}

	results := make([]audit.DimensionResult, 0, len(dimensions))
	for i, dimension := range dimensions {
		a.SetProgress(3, progressTotal, evaluationLabel(a.Mode, dimension, i+1, len(dimensions)))
		if err := s.checkpoint(ctx, a); err != nil {
			return err
		}

		result, usage, err := s.evaluator.EvaluateDimension(ctx, in, dimension, images)
		a.Usage.Add(usage)
		if err != nil {
			return err
		}
		results = append(results, result)
		s.logger.Info("dimension evaluated",
			logging.String(logging.FieldDimension, string(dimension)),
			logging.Int("score", result.Score))
	}

	overall, sorted, err := Aggregate(results)
	if err != nil {
		return services.Wrap(services.ErrJudgment, stageName, "aggregate scores", "", err)
	}

	a.SetProgress(4, progressTotal, "Persisting results")
	if err := s.checkpoint(ctx, a); err != nil {
		return err
	}
	if err := s.store.ReplaceResults(ctx, a.ID, sorted); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "persist results", "", err)
	}

	completedAt := s.now().UTC()
	a.OverallScore = &overall
	a.CompletedAt = &completedAt
	a.Status = audit.StatusCompleted
	a.SetProgress(progressTotal, progressTotal, "Audit complete")
	s.logger.Info("analysis complete",
		logging.Int("overall_score", overall),
		logging.Int("dimension_count", len(sorted)),
		logging.Float64("cost_usd", a.Usage.CostUSD))
	return nil
}

// HealthCheck verifies the judgment endpoint is reachable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.evaluator == nil {
		return stage.Unhealthy(stageName, "evaluator unavailable")
	}
	if s.health != nil {
		if err := s.health.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(stageName, err.Error())
		}
	}
	return stage.Healthy(stageName)
}

// evaluationLabel names the judgment checkpoint so progress reads as a
// side-by-side comparison or a single-page assessment.
func evaluationLabel(mode audit.Mode, dimension audit.Dimension, index, total int) string {
	if mode == audit.ModeComparison {
		return fmt.Sprintf("Comparing translations: %s (%d/%d)", dimension, index, total)
	}
	return fmt.Sprintf("Assessing translation quality: %s (%d/%d)", dimension, index, total)
}

// loadEvidence assembles the pairs and image attachments the judgments use.
// Text evidence and visual evidence are both allowed; at least one must be
// present.
func (s *Stage) loadEvidence(a *audit.Audit) (*content.Pairs, []audit.LabeledImage, error) {
	pairs, err := a.ContentPairs()
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, stageName, "load evidence", "stored content pairs are unreadable", err)
	}

	var images []audit.LabeledImage
	if a.Acquisition == audit.AcquireImageUpload {
		images, err = a.Images()
		if err != nil {
			return nil, nil, services.Wrap(services.ErrValidation, stageName, "load evidence", "uploaded images are unreadable", err)
		}
	} else {
		if a.SourceSnapshot != "" {
			image, err := readSnapshot(a.SourceSnapshot, audit.ImageSource)
			if err != nil {
				return nil, nil, err
			}
			images = append(images, image)
		}
		if a.TargetSnapshot != "" {
			image, err := readSnapshot(a.TargetSnapshot, audit.ImageTarget)
			if err != nil {
				return nil, nil, err
			}
			images = append(images, image)
		}
	}

	if pairs == nil && len(images) == 0 {
		return nil, nil, services.Wrap(services.ErrValidation, stageName, "load evidence",
			"audit reached analysis with no content pairs and no images", nil)
	}
	return pairs, images, nil
}

func readSnapshot(path string, label audit.ImageLabel) (audit.LabeledImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audit.LabeledImage{}, services.Wrap(services.ErrFetch, stageName, "read snapshot", path, err)
	}
	return audit.LabeledImage{
		Label:     label,
		Name:      path,
		MediaType: "image/png",
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}

// checkpoint persists progress mid-stage. ErrNotFound propagates as a
// cancellation: the audit row is gone and nothing further should be written.
func (s *Stage) checkpoint(ctx context.Context, a *audit.Audit) error {
	err := s.store.Update(ctx, a)
	if err == nil {
		return nil
	}
	if errors.Is(err, audit.ErrNotFound) {
		return fmt.Errorf("audit removed during analysis: %w", err)
	}
	return services.Wrap(services.ErrTransient, stageName, "persist progress", "", err)
}
