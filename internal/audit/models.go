package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"locaudit/internal/content"
)

// Status represents the lifecycle of an audit.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScraping  Status = "scraping"
	StatusAnalyzing Status = "analyzing"
	StatusBlocked   Status = "blocked"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusScraping,
	StatusAnalyzing,
	StatusBlocked,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status accepts no further pipeline work.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Mode selects the audit variant.
type Mode string

const (
	ModeComparison  Mode = "comparison"
	ModeStandalone  Mode = "standalone"
	ModeProficiency Mode = "proficiency"
)

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeComparison:
		return ModeComparison, true
	case ModeStandalone:
		return ModeStandalone, true
	case ModeProficiency:
		return ModeProficiency, true
	}
	return "", false
}

// AcquisitionMode selects how page evidence is gathered.
type AcquisitionMode string

const (
	AcquireAuto        AcquisitionMode = "auto"
	AcquireText        AcquisitionMode = "text"
	AcquireScreenshot  AcquisitionMode = "screenshot"
	AcquireCombined    AcquisitionMode = "combined"
	AcquireImageUpload AcquisitionMode = "image_upload"
)

// ParseAcquisitionMode converts a string into a known AcquisitionMode.
func ParseAcquisitionMode(value string) (AcquisitionMode, bool) {
	switch AcquisitionMode(strings.ToLower(strings.TrimSpace(value))) {
	case AcquireAuto:
		return AcquireAuto, true
	case AcquireText:
		return AcquireText, true
	case AcquireScreenshot:
		return AcquireScreenshot, true
	case AcquireCombined:
		return AcquireCombined, true
	case AcquireImageUpload:
		return AcquireImageUpload, true
	}
	return "", false
}

// ImageLabel tags an uploaded image with the page side it evidences.
type ImageLabel string

const (
	ImageSource ImageLabel = "source"
	ImageTarget ImageLabel = "target"
)

// LabeledImage is user-supplied visual evidence for image_upload audits.
type LabeledImage struct {
	Label     ImageLabel `json:"label"`
	Name      string     `json:"name,omitempty"`
	MediaType string     `json:"media_type,omitempty"`
	Data      string     `json:"data"` // base64-encoded
}

// Usage accumulates judgment-call resource metrics across all dimensions.
type Usage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	DurationMS   int64   `json:"duration_ms"`
}

// Add accumulates another usage sample.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CostUSD += other.CostUSD
	u.DurationMS += other.DurationMS
}

// Audit represents one audit persisted in SQLite. JSON-typed columns are kept
// as raw strings on the struct; use the accessor helpers to decode them.
type Audit struct {
	ID    int64
	Owner string
	Mode  Mode

	SourceURL      string
	TargetURL      string
	SourceLanguage string
	TargetLanguage string
	Industry       string
	GlossaryID     *int64
	Acquisition    AcquisitionMode
	ImagesJSON     string

	Status        Status
	ErrorMessage  string
	BlockedReason string
	Degraded      bool

	ProgressStep    int
	ProgressTotal   int
	ProgressMessage string

	OverallScore      *int
	SourceContentJSON string
	TargetContentJSON string
	ContentPairsJSON  string
	SourceSnapshot    string
	TargetSnapshot    string
	ActualMethod      string

	Usage Usage

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// SetProgress updates the progress checkpoint fields together.
func (a *Audit) SetProgress(step, total int, message string) {
	a.ProgressStep = step
	a.ProgressTotal = total
	a.ProgressMessage = message
}

// SetFailed marks the audit as terminally failed with the given error detail.
func (a *Audit) SetFailed(message string) {
	a.Status = StatusFailed
	a.ErrorMessage = message
	a.ProgressMessage = "Failed"
}

// SetBlocked records a challenge-page detection. Blocked is a recoverable
// state, not a failure; the reason and any captured snapshot are preserved
// for the user's retry/proceed decision.
func (a *Audit) SetBlocked(reason string) {
	a.Status = StatusBlocked
	a.BlockedReason = reason
	a.ErrorMessage = ""
	a.ProgressMessage = "Blocked by anti-automation challenge"
}

// Images decodes the labeled image set attached to the request.
func (a *Audit) Images() ([]LabeledImage, error) {
	if strings.TrimSpace(a.ImagesJSON) == "" {
		return nil, nil
	}
	var images []LabeledImage
	if err := json.Unmarshal([]byte(a.ImagesJSON), &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

// SetImages encodes the labeled image set onto the audit.
func (a *Audit) SetImages(images []LabeledImage) error {
	if len(images) == 0 {
		a.ImagesJSON = ""
		return nil
	}
	data, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	a.ImagesJSON = string(data)
	return nil
}

// ContentPairs decodes the aligned content pairing, if present.
func (a *Audit) ContentPairs() (*content.Pairs, error) {
	if strings.TrimSpace(a.ContentPairsJSON) == "" {
		return nil, nil
	}
	var pairs content.Pairs
	if err := json.Unmarshal([]byte(a.ContentPairsJSON), &pairs); err != nil {
		return nil, fmt.Errorf("decode content pairs: %w", err)
	}
	return &pairs, nil
}

// SetContentPairs encodes the aligned content pairing onto the audit.
func (a *Audit) SetContentPairs(pairs content.Pairs) error {
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("encode content pairs: %w", err)
	}
	a.ContentPairsJSON = string(data)
	return nil
}

// SourceContent decodes the stored source-page extraction, if present.
func (a *Audit) SourceContent() (*content.Extraction, error) {
	return decodeExtraction(a.SourceContentJSON)
}

// TargetContent decodes the stored target-page extraction, if present.
func (a *Audit) TargetContent() (*content.Extraction, error) {
	return decodeExtraction(a.TargetContentJSON)
}

// SetSourceContent encodes the source-page extraction onto the audit.
func (a *Audit) SetSourceContent(e *content.Extraction) error {
	encoded, err := encodeExtraction(e)
	if err != nil {
		return err
	}
	a.SourceContentJSON = encoded
	return nil
}

// SetTargetContent encodes the target-page extraction onto the audit.
func (a *Audit) SetTargetContent(e *content.Extraction) error {
	encoded, err := encodeExtraction(e)
	if err != nil {
		return err
	}
	a.TargetContentJSON = encoded
	return nil
}

func decodeExtraction(raw string) (*content.Extraction, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var extraction content.Extraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	return &extraction, nil
}

func encodeExtraction(e *content.Extraction) (string, error) {
	if e == nil {
		return "", nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode extraction: %w", err)
	}
	return string(data), nil
}

// Glossary is an industry- and language-pair-scoped terminology reference.
// System glossaries have no owner and are read-only for users.
type Glossary struct {
	ID             int64
	Owner          string
	Name           string
	Description    string
	Industry       string
	SourceLanguage string
	TargetLanguage string
	IsSystem       bool
	Terms          []GlossaryTerm
	// TermCount is populated by ListGlossaries, which skips loading terms.
	TermCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GlossaryTerm is one terminology entry belonging to exactly one glossary.
type GlossaryTerm struct {
	ID         int64
	GlossaryID int64
	SourceTerm string
	TargetTerm string
	Context    string
	Notes      string
}
