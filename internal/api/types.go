package api

import "time"

// ImageUpload is one labeled page capture supplied with an image_upload
// audit. Data is base64-encoded.
type ImageUpload struct {
	Label     string `json:"label"`
	Name      string `json:"name,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data"`
}

// CreateAuditRequest carries everything needed to submit an audit.
type CreateAuditRequest struct {
	Owner          string        `json:"owner,omitempty"`
	Mode           string        `json:"mode"`
	SourceURL      string        `json:"source_url,omitempty"`
	TargetURL      string        `json:"target_url,omitempty"`
	SourceLanguage string        `json:"source_language,omitempty"`
	TargetLanguage string        `json:"target_language,omitempty"`
	Industry       string        `json:"industry,omitempty"`
	GlossaryID     *int64        `json:"glossary_id,omitempty"`
	Acquisition    string        `json:"acquisition,omitempty"`
	Images         []ImageUpload `json:"images,omitempty"`
}

// FindingView is one defect within a dimension result.
type FindingView struct {
	Kind       string  `json:"kind"`
	Issue      string  `json:"issue"`
	Source     *string `json:"source,omitempty"`
	Target     *string `json:"target,omitempty"`
	Text       *string `json:"text,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
	Severity   string  `json:"severity"`
}

// GoodExampleView highlights a well-executed translation.
type GoodExampleView struct {
	Description string  `json:"description"`
	Source      *string `json:"source,omitempty"`
	Target      *string `json:"target,omitempty"`
	Text        *string `json:"text,omitempty"`
}

// DimensionResultView is the judged outcome for one dimension.
type DimensionResultView struct {
	Dimension       string            `json:"dimension"`
	Score           int               `json:"score"`
	Findings        []FindingView     `json:"findings,omitempty"`
	GoodExamples    []GoodExampleView `json:"good_examples,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Position        int               `json:"position"`
}

// UsageView reports token consumption and cost for an audit.
type UsageView struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	DurationMS   int64   `json:"duration_ms"`
}

// AuditView is the full audit snapshot returned by Get and Create.
type AuditView struct {
	ID             int64  `json:"id"`
	Owner          string `json:"owner,omitempty"`
	Mode           string `json:"mode"`
	SourceURL      string `json:"source_url,omitempty"`
	TargetURL      string `json:"target_url,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	Industry       string `json:"industry,omitempty"`
	GlossaryID     *int64 `json:"glossary_id,omitempty"`
	Acquisition    string `json:"acquisition"`
	ActualMethod   string `json:"actual_method,omitempty"`

	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message,omitempty"`
	BlockedReason string `json:"blocked_reason,omitempty"`
	Degraded      bool   `json:"degraded,omitempty"`

	ProgressStep    int    `json:"progress_step"`
	ProgressTotal   int    `json:"progress_total"`
	ProgressMessage string `json:"progress_message,omitempty"`

	OverallScore *int                  `json:"overall_score,omitempty"`
	Results      []DimensionResultView `json:"results,omitempty"`
	Usage        UsageView             `json:"usage"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AuditPage is one page of a newest-first audit listing.
type AuditPage struct {
	Audits []AuditView `json:"audits"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// GlossaryTermView is one terminology entry.
type GlossaryTermView struct {
	SourceTerm string `json:"source_term"`
	TargetTerm string `json:"target_term,omitempty"`
	Context    string `json:"context,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// GlossaryView describes a glossary, optionally with its terms.
type GlossaryView struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Industry       string             `json:"industry"`
	SourceLanguage string             `json:"source_language"`
	TargetLanguage string             `json:"target_language"`
	IsSystem       bool               `json:"is_system"`
	TermCount      int                `json:"term_count"`
	Terms          []GlossaryTermView `json:"terms,omitempty"`
}
