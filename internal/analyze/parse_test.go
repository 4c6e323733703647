package analyze

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"locaudit/internal/audit"
)

func TestParseDimensionComparison(t *testing.T) {
	payload := `{
		"score": 82,
		"findings": [
			{"issue": "Literal translation of idiom", "source": "hit the ground running", "target": "땅을 치며 달리기", "suggestion": "빠르게 시작하기", "severity": "high"},
			{"issue": "   ", "source": "ignored", "target": "ignored"}
		],
		"good_examples": [
			{"description": "Currency localized correctly", "source": "$10", "target": "₩13,000"}
		],
		"recommendations": ["Review idioms with a native speaker", ""]
	}`

	result, err := ParseDimension(payload, audit.DimensionCorrectness, audit.ModeComparison)
	if err != nil {
		t.Fatalf("ParseDimension: %v", err)
	}
	if result.Score != 82 {
		t.Errorf("Score = %d, want 82", result.Score)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("Findings = %d, want 1 (blank issue dropped)", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Kind != audit.FindingComparison {
		t.Errorf("Kind = %q", f.Kind)
	}
	if f.Severity != audit.SeverityHigh {
		t.Errorf("Severity = %q", f.Severity)
	}
	if f.Source == nil || *f.Source != "hit the ground running" {
		t.Errorf("Source = %v", f.Source)
	}
	if f.Text != nil {
		t.Error("comparison finding carries a standalone text excerpt")
	}
	if len(result.GoodExamples) != 1 || *result.GoodExamples[0].Target != "₩13,000" {
		t.Errorf("GoodExamples = %+v", result.GoodExamples)
	}
	if len(result.Recommendations) != 1 {
		t.Errorf("Recommendations = %v (empty entry should be dropped)", result.Recommendations)
	}
}

func TestParseDimensionStandaloneTextFallback(t *testing.T) {
	payload := `{
		"score": 65,
		"findings": [
			{"issue": "Awkward phrasing", "target": "매우 좋은 아주", "severity": "nonsense"}
		]
	}`

	result, err := ParseDimension(payload, audit.DimensionFluency, audit.ModeStandalone)
	if err != nil {
		t.Fatalf("ParseDimension: %v", err)
	}
	f := result.Findings[0]
	if f.Kind != audit.FindingStandalone {
		t.Errorf("Kind = %q", f.Kind)
	}
	if f.Text == nil || *f.Text != "매우 좋은 아주" {
		t.Errorf("Text = %v, want fallback from target field", f.Text)
	}
	if f.Severity != audit.SeverityMedium {
		t.Errorf("Severity = %q, want medium default for unknown value", f.Severity)
	}
}

func TestParseDimensionMissingScore(t *testing.T) {
	if _, err := ParseDimension(`{"findings": []}`, audit.DimensionSEO, audit.ModeComparison); err == nil {
		t.Fatal("expected error for missing score")
	}
}

func TestParseDimensionScoreOutOfRange(t *testing.T) {
	for _, score := range []int{-1, 101} {
		payload := fmt.Sprintf(`{"score": %d}`, score)
		if _, err := ParseDimension(payload, audit.DimensionSEO, audit.ModeComparison); err == nil {
			t.Errorf("score %d accepted, want rejection", score)
		}
	}
}

func TestParseDimensionCapsLists(t *testing.T) {
	var findings []string
	for i := 0; i < maxFindings+5; i++ {
		findings = append(findings, fmt.Sprintf(`{"issue": "issue %d"}`, i))
	}
	payload := fmt.Sprintf(`{"score": 50, "findings": [%s]}`, strings.Join(findings, ","))

	result, err := ParseDimension(payload, audit.DimensionConsistency, audit.ModeComparison)
	if err != nil {
		t.Fatalf("ParseDimension: %v", err)
	}
	if len(result.Findings) != maxFindings {
		t.Errorf("Findings = %d, want cap %d", len(result.Findings), maxFindings)
	}
}

func TestParseDimensionTruncatesExcerpts(t *testing.T) {
	long := strings.Repeat("a", maxExcerptChars+100)
	payload := fmt.Sprintf(`{"score": 50, "findings": [{"issue": %q}]}`, long)

	result, err := ParseDimension(payload, audit.DimensionCorrectness, audit.ModeComparison)
	if err != nil {
		t.Fatalf("ParseDimension: %v", err)
	}
	issue := result.Findings[0].Issue
	if got := utf8.RuneCountInString(issue); got > maxExcerptChars+1 {
		t.Errorf("issue length = %d runes, want truncation at %d", got, maxExcerptChars)
	}
	if !strings.HasSuffix(issue, "…") {
		t.Error("truncated issue missing ellipsis")
	}
}
