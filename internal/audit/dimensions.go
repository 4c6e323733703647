package audit

import "strings"

// Dimension is one named axis of translation quality scored independently.
type Dimension string

const (
	DimensionCorrectness         Dimension = "CORRECTNESS"
	DimensionCulturalRelevance   Dimension = "CULTURAL_RELEVANCE"
	DimensionIndustryExpertise   Dimension = "INDUSTRY_EXPERTISE"
	DimensionFluency             Dimension = "FLUENCY"
	DimensionConsistency         Dimension = "CONSISTENCY"
	DimensionCompleteness        Dimension = "COMPLETENESS"
	DimensionUIUX                Dimension = "UI_UX"
	DimensionSEO                 Dimension = "SEO"
	DimensionLanguageProficiency Dimension = "LANGUAGE_PROFICIENCY"
)

var comparisonDimensions = []Dimension{
	DimensionCorrectness,
	DimensionCulturalRelevance,
	DimensionIndustryExpertise,
	DimensionFluency,
	DimensionConsistency,
	DimensionCompleteness,
	DimensionUIUX,
	DimensionSEO,
}

// DimensionsFor returns the ordered dimensions evaluated for an audit mode.
// Standalone audits exclude CONSISTENCY by definition: with no source page
// there is nothing to compare terminology against.
func DimensionsFor(mode Mode) []Dimension {
	switch mode {
	case ModeStandalone:
		dims := make([]Dimension, 0, len(comparisonDimensions)-1)
		for _, dim := range comparisonDimensions {
			if dim == DimensionConsistency {
				continue
			}
			dims = append(dims, dim)
		}
		return dims
	case ModeProficiency:
		return []Dimension{DimensionLanguageProficiency}
	default:
		dims := make([]Dimension, len(comparisonDimensions))
		copy(dims, comparisonDimensions)
		return dims
	}
}

// Severity grades how serious a finding is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity normalizes a severity string, defaulting to medium for
// unrecognized values so a sloppy judgment response never drops a finding.
func ParseSeverity(value string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(value))) {
	case SeverityLow:
		return SeverityLow
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// FindingKind discriminates which excerpt fields a finding populates.
type FindingKind string

const (
	// FindingComparison findings quote the source and target excerpts.
	FindingComparison FindingKind = "comparison"
	// FindingStandalone findings quote a single text excerpt.
	FindingStandalone FindingKind = "standalone"
)

// Finding is a specific defect identified within a dimension.
type Finding struct {
	Kind       FindingKind `json:"kind"`
	Issue      string      `json:"issue"`
	Source     *string     `json:"source,omitempty"`
	Target     *string     `json:"target,omitempty"`
	Text       *string     `json:"text,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
	Severity   Severity    `json:"severity"`
}

// GoodExample highlights a well-executed translation.
type GoodExample struct {
	Description string  `json:"description"`
	Source      *string `json:"source,omitempty"`
	Target      *string `json:"target,omitempty"`
	Text        *string `json:"text,omitempty"`
}

// DimensionResult is the immutable judgment output for one dimension of one
// audit. Position records the report ordering (ascending by score).
type DimensionResult struct {
	ID              int64
	AuditID         int64
	Dimension       Dimension
	Score           int
	Findings        []Finding
	GoodExamples    []GoodExample
	Recommendations []string
	Position        int
}
