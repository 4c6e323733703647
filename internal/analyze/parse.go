package analyze

import (
	"fmt"

	"locaudit/internal/audit"
	"locaudit/internal/services/judge"
	"locaudit/internal/textutil"
)

// Bounds on what one dimension judgment may carry into the report.
const (
	maxFindings        = 10
	maxGoodExamples    = 5
	maxRecommendations = 5
	maxExcerptChars    = 500
)

type findingPayload struct {
	Issue      string  `json:"issue"`
	Source     *string `json:"source"`
	Target     *string `json:"target"`
	Text       *string `json:"text"`
	Suggestion string  `json:"suggestion"`
	Severity   string  `json:"severity"`
}

type goodExamplePayload struct {
	Description string  `json:"description"`
	Source      *string `json:"source"`
	Target      *string `json:"target"`
	Text        *string `json:"text"`
}

type dimensionPayload struct {
	Score           *int                 `json:"score"`
	Findings        []findingPayload     `json:"findings"`
	GoodExamples    []goodExamplePayload `json:"good_examples"`
	Recommendations []string             `json:"recommendations"`
}

// ParseDimension validates one judgment response into a DimensionResult.
// Out-of-range scores are rejected, never clamped: a judge that cannot stay
// inside the contract should not silently shape the report.
func ParseDimension(payload string, dimension audit.Dimension, mode audit.Mode) (audit.DimensionResult, error) {
	var empty audit.DimensionResult
	var parsed dimensionPayload
	if err := judge.DecodeJudgeJSON(payload, &parsed); err != nil {
		return empty, fmt.Errorf("decode %s judgment: %w", dimension, err)
	}
	if parsed.Score == nil {
		return empty, fmt.Errorf("%s judgment missing score", dimension)
	}
	if *parsed.Score < 0 || *parsed.Score > 100 {
		return empty, fmt.Errorf("%s judgment score %d out of range", dimension, *parsed.Score)
	}

	kind := audit.FindingComparison
	if mode != audit.ModeComparison {
		kind = audit.FindingStandalone
	}

	result := audit.DimensionResult{
		Dimension: dimension,
		Score:     *parsed.Score,
	}

	findings := parsed.Findings
	if len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}
	for _, f := range findings {
		issue := cleanExcerpt(f.Issue)
		if issue == "" {
			continue
		}
		finding := audit.Finding{
			Kind:       kind,
			Issue:      issue,
			Suggestion: cleanExcerpt(f.Suggestion),
			Severity:   audit.ParseSeverity(f.Severity),
		}
		if kind == audit.FindingComparison {
			finding.Source = cleanOptional(f.Source)
			finding.Target = cleanOptional(f.Target)
		} else {
			finding.Text = cleanOptional(firstPresent(f.Text, f.Target, f.Source))
		}
		result.Findings = append(result.Findings, finding)
	}

	examples := parsed.GoodExamples
	if len(examples) > maxGoodExamples {
		examples = examples[:maxGoodExamples]
	}
	for _, e := range examples {
		description := cleanExcerpt(e.Description)
		if description == "" {
			continue
		}
		example := audit.GoodExample{Description: description}
		if kind == audit.FindingComparison {
			example.Source = cleanOptional(e.Source)
			example.Target = cleanOptional(e.Target)
		} else {
			example.Text = cleanOptional(firstPresent(e.Text, e.Target, e.Source))
		}
		result.GoodExamples = append(result.GoodExamples, example)
	}

	recommendations := parsed.Recommendations
	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	for _, rec := range recommendations {
		if cleaned := cleanExcerpt(rec); cleaned != "" {
			result.Recommendations = append(result.Recommendations, cleaned)
		}
	}

	return result, nil
}

func cleanExcerpt(value string) string {
	return textutil.Truncate(textutil.CollapseWhitespace(textutil.StripControl(value)), maxExcerptChars)
}

func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := cleanExcerpt(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func firstPresent(values ...*string) *string {
	for _, value := range values {
		if value != nil && *value != "" {
			return value
		}
	}
	return nil
}
