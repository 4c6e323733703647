package ipc

import "locaudit/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// AuditView mirrors the API audit DTO for internal IPC callers.
type AuditView = api.AuditView

// AuditPage mirrors the API audit listing DTO.
type AuditPage = api.AuditPage

// GlossaryView mirrors the API glossary DTO.
type GlossaryView = api.GlossaryView

// StageHealth describes readiness of a pipeline stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	AuditStats   map[string]int `json:"audit_stats"`
	LastError    string         `json:"last_error"`
	LastAudit    *AuditView     `json:"last_audit"`
	LockPath     string         `json:"lock_path"`
	DatabasePath string         `json:"database_path"`
	StageHealth  []StageHealth  `json:"stage_health"`
	PID          int            `json:"pid"`
}

// SubmitRequest enqueues a new audit.
type SubmitRequest struct {
	Audit api.CreateAuditRequest `json:"audit"`
}

// SubmitResponse contains the created audit.
type SubmitResponse struct {
	Audit AuditView `json:"audit"`
}

// AuditShowRequest fetches a single audit by id.
type AuditShowRequest struct {
	ID int64 `json:"id"`
}

// AuditShowResponse contains one audit with its dimension results.
type AuditShowResponse struct {
	Audit AuditView `json:"audit"`
}

// AuditListRequest pages through audits, newest first.
type AuditListRequest struct {
	Owner  string `json:"owner,omitempty"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// AuditListResponse contains one listing page.
type AuditListResponse struct {
	Page AuditPage `json:"page"`
}

// AuditRetryRequest returns a blocked audit to pending.
type AuditRetryRequest struct {
	ID int64 `json:"id"`
}

// AuditRetryResponse contains the updated audit.
type AuditRetryResponse struct {
	Audit AuditView `json:"audit"`
}

// AuditProceedRequest releases a blocked audit into analysis.
type AuditProceedRequest struct {
	ID int64 `json:"id"`
}

// AuditProceedResponse contains the updated audit.
type AuditProceedResponse struct {
	Audit AuditView `json:"audit"`
}

// AuditDeleteRequest removes an audit and its results.
type AuditDeleteRequest struct {
	ID int64 `json:"id"`
}

// AuditDeleteResponse reports delete outcome.
type AuditDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// GlossaryListRequest lists system glossaries plus the owner's own.
type GlossaryListRequest struct {
	Owner string `json:"owner,omitempty"`
}

// GlossaryListResponse contains glossary summaries.
type GlossaryListResponse struct {
	Glossaries []GlossaryView `json:"glossaries"`
}

// GlossaryShowRequest fetches one glossary with its terms.
type GlossaryShowRequest struct {
	ID int64 `json:"id"`
}

// GlossaryShowResponse contains one glossary.
type GlossaryShowResponse struct {
	Glossary GlossaryView `json:"glossary"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
