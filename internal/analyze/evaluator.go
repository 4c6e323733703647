package analyze

import (
	"context"
	"fmt"
	"log/slog"

	"locaudit/internal/audit"
	"locaudit/internal/logging"
	"locaudit/internal/services"
	"locaudit/internal/services/judge"
)

// JudgeClient is the slice of the judge client the evaluator needs.
type JudgeClient interface {
	CompleteJSON(ctx context.Context, req judge.Request) (judge.Response, error)
}

// Evaluator runs one judgment call per dimension, with a single repeat
// attempt for malformed responses before failing the audit.
type Evaluator struct {
	client JudgeClient
	logger *slog.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(client JudgeClient, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Evaluator{client: client, logger: logger}
}

// EvaluateDimension judges a single dimension. Usage is returned even when
// the judgment fails so the audit bills every call made on its behalf.
func (e *Evaluator) EvaluateDimension(
	ctx context.Context,
	in PromptInput,
	dimension audit.Dimension,
	images []audit.LabeledImage,
) (audit.DimensionResult, audit.Usage, error) {
	var usage audit.Usage
	var empty audit.DimensionResult

	userPrompt, err := UserPrompt(in, dimension)
	if err != nil {
		return empty, usage, services.Wrap(services.ErrValidation, "analysis",
			fmt.Sprintf("evaluate %s", dimension), "cannot build judgment prompt", err)
	}

	req := judge.Request{
		SystemPrompt: SystemPrompt(in.Audit.Mode),
		UserPrompt:   userPrompt,
		Images:       images,
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		resp, err := e.client.CompleteJSON(ctx, req)
		usage.Add(resp.Usage)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			e.logger.Warn("judgment call failed",
				logging.String(logging.FieldDimension, string(dimension)),
				logging.Int("attempt", attempt),
				logging.Error(err))
			continue
		}

		result, parseErr := ParseDimension(resp.Content, dimension, in.Audit.Mode)
		if parseErr != nil {
			lastErr = parseErr
			e.logger.Warn("judgment response rejected",
				logging.String(logging.FieldDimension, string(dimension)),
				logging.Int("attempt", attempt),
				logging.Error(parseErr))
			continue
		}
		return result, usage, nil
	}

	return empty, usage, services.Wrap(services.ErrJudgment, "analysis",
		fmt.Sprintf("evaluate %s", dimension), "judgment failed after retry", lastErr)
}
