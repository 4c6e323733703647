package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"locaudit/internal/audit"
	"locaudit/internal/language"
	"locaudit/internal/logging"
	"locaudit/internal/services"
)

const (
	maxUploadImages  = 3
	defaultListLimit = 50
	maxListLimit     = 200
)

// AuditService is the operation facade over the store consumed by the CLI
// and the IPC server.
type AuditService struct {
	store  *audit.Store
	logger *slog.Logger
}

// NewAuditService constructs the service.
func NewAuditService(store *audit.Store, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AuditService{store: store, logger: logger}
}

// Create validates the request per audit mode and persists a pending audit.
// Validation failures reject the request before any state exists.
func (s *AuditService) Create(ctx context.Context, req CreateAuditRequest) (*AuditView, error) {
	a, err := s.buildAudit(req)
	if err != nil {
		return nil, err
	}

	created, err := s.store.NewAudit(ctx, a)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "create audit", "", err)
	}
	s.logger.Info("audit submitted",
		logging.Int64(logging.FieldAuditID, created.ID),
		logging.String("mode", string(created.Mode)),
		logging.String("acquisition", string(created.Acquisition)))

	view := auditToView(created, nil)
	return &view, nil
}

// Get returns the audit snapshot, including dimension results once present.
func (s *AuditService) Get(ctx context.Context, id int64) (*AuditView, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "get audit", "", err)
	}
	if a == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "get audit", fmt.Sprintf("audit %d", id), nil)
	}
	results, err := s.store.ResultsFor(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "load results", "", err)
	}
	view := auditToView(a, results)
	return &view, nil
}

// List returns a newest-first page of audits for the owner.
func (s *AuditService) List(ctx context.Context, owner string, offset, limit int) (*AuditPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	audits, err := s.store.List(ctx, owner, offset, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "list audits", "", err)
	}
	total, err := s.store.Count(ctx, owner)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "count audits", "", err)
	}

	page := &AuditPage{Total: total, Offset: offset, Limit: limit}
	for _, a := range audits {
		page.Audits = append(page.Audits, auditToView(a, nil))
	}
	return page, nil
}

// Retry returns a blocked audit to pending for a fresh acquisition attempt.
func (s *AuditService) Retry(ctx context.Context, id int64) (*AuditView, error) {
	if err := s.store.RetryBlocked(ctx, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Proceed releases a blocked audit into analysis on its partial evidence.
func (s *AuditService) Proceed(ctx context.Context, id int64) (*AuditView, error) {
	if err := s.store.ProceedBlocked(ctx, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an audit and its results. Deleting a missing audit returns
// ErrNotFound; mid-flight audits are abandoned at the next stage boundary.
func (s *AuditService) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "api", "delete audit", "", err)
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "api", "delete audit", fmt.Sprintf("audit %d", id), nil)
	}
	s.logger.Info("audit deleted", logging.Int64(logging.FieldAuditID, id))
	return nil
}

// ListGlossaries returns system glossaries plus the owner's own.
func (s *AuditService) ListGlossaries(ctx context.Context, owner string) ([]GlossaryView, error) {
	glossaries, err := s.store.ListGlossaries(ctx, owner)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "list glossaries", "", err)
	}
	views := make([]GlossaryView, 0, len(glossaries))
	for _, g := range glossaries {
		views = append(views, glossaryToView(g, false))
	}
	return views, nil
}

// GetGlossary returns one glossary with its terms.
func (s *AuditService) GetGlossary(ctx context.Context, id int64) (*GlossaryView, error) {
	g, err := s.store.GlossaryByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "get glossary", "", err)
	}
	if g == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "get glossary", fmt.Sprintf("glossary %d", id), nil)
	}
	view := glossaryToView(g, true)
	return &view, nil
}

func (s *AuditService) buildAudit(req CreateAuditRequest) (*audit.Audit, error) {
	mode, ok := audit.ParseMode(strings.TrimSpace(req.Mode))
	if !ok {
		return nil, validationError("unknown mode %q", req.Mode)
	}

	acquisition := audit.AcquireAuto
	if trimmed := strings.TrimSpace(req.Acquisition); trimmed != "" {
		acquisition, ok = audit.ParseAcquisitionMode(trimmed)
		if !ok {
			return nil, validationError("unknown acquisition mode %q", req.Acquisition)
		}
	}

	sourceLang, err := language.Normalize(req.SourceLanguage)
	if err != nil {
		return nil, validationError("source language: %v", err)
	}
	targetLang, err := language.Normalize(req.TargetLanguage)
	if err != nil {
		return nil, validationError("target language: %v", err)
	}

	a := &audit.Audit{
		Owner:          strings.TrimSpace(req.Owner),
		Mode:           mode,
		SourceURL:      strings.TrimSpace(req.SourceURL),
		TargetURL:      strings.TrimSpace(req.TargetURL),
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		Industry:       strings.ToLower(strings.TrimSpace(req.Industry)),
		GlossaryID:     req.GlossaryID,
		Acquisition:    acquisition,
	}

	if acquisition == audit.AcquireImageUpload {
		if err := applyImages(a, req.Images); err != nil {
			return nil, err
		}
	} else {
		if len(req.Images) > 0 {
			return nil, validationError("images are only accepted with acquisition mode image_upload")
		}
		if a.TargetURL == "" {
			return nil, validationError("target URL is required")
		}
		if err := validateURL("target", a.TargetURL); err != nil {
			return nil, err
		}
		if mode == audit.ModeComparison {
			if a.SourceURL == "" {
				return nil, validationError("comparison audits require a source URL")
			}
			if err := validateURL("source", a.SourceURL); err != nil {
				return nil, err
			}
		} else if a.SourceURL != "" {
			return nil, validationError("%s audits do not accept a source URL", mode)
		}
	}

	if mode == audit.ModeStandalone && a.SourceLanguage == "" {
		return nil, validationError("standalone audits require a source language")
	}
	if a.GlossaryID != nil && *a.GlossaryID <= 0 {
		return nil, validationError("glossary id must be positive")
	}
	return a, nil
}

func applyImages(a *audit.Audit, uploads []ImageUpload) error {
	if len(uploads) == 0 {
		return validationError("image_upload audits require at least one image")
	}
	if len(uploads) > maxUploadImages {
		return validationError("image_upload audits accept at most %d images", maxUploadImages)
	}

	images := make([]audit.LabeledImage, 0, len(uploads))
	var sources, targets int
	for i, upload := range uploads {
		label := audit.ImageLabel(strings.ToLower(strings.TrimSpace(upload.Label)))
		switch label {
		case audit.ImageSource:
			sources++
		case audit.ImageTarget:
			targets++
		default:
			return validationError("image %d has unknown label %q", i+1, upload.Label)
		}
		if strings.TrimSpace(upload.Data) == "" {
			return validationError("image %d has no data", i+1)
		}
		mediaType := strings.TrimSpace(upload.MediaType)
		if mediaType == "" {
			mediaType = "image/png"
		}
		images = append(images, audit.LabeledImage{
			Label:     label,
			Name:      strings.TrimSpace(upload.Name),
			MediaType: mediaType,
			Data:      upload.Data,
		})
	}

	if targets == 0 {
		return validationError("image_upload audits require at least one target-labeled image")
	}
	if a.Mode == audit.ModeComparison && sources == 0 {
		return validationError("comparison image_upload audits require at least one source-labeled image")
	}
	if a.Mode != audit.ModeComparison && sources > 0 {
		return validationError("%s audits do not accept source-labeled images", a.Mode)
	}
	if a.TargetLanguage == "" {
		return validationError("image_upload audits require a target language")
	}
	return a.SetImages(images)
}

func validateURL(side, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return validationError("%s URL %q must be absolute http or https", side, raw)
	}
	return nil
}

func validationError(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "api", "validate request", fmt.Sprintf(format, args...), nil)
}
