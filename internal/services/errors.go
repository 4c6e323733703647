package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad request shapes rejected before any state exists.
	ErrValidation = errors.New("validation error")
	// ErrFetch marks network or extraction failures after retries are exhausted.
	ErrFetch = errors.New("fetch error")
	// ErrJudgment marks malformed or out-of-range judgment responses.
	ErrJudgment = errors.New("judgment error")
	// ErrNotFound marks operations against a missing or deleted record.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
