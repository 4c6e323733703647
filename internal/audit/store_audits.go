package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const auditColumns = "id, owner, mode, source_url, target_url, source_language, target_language, " +
	"industry, glossary_id, acquisition, images_json, status, error_message, blocked_reason, degraded, " +
	"progress_step, progress_total, progress_message, overall_score, " +
	"source_content_json, target_content_json, content_pairs_json, source_snapshot, target_snapshot, " +
	"actual_method, input_tokens, output_tokens, cost_usd, duration_ms, created_at, updated_at, completed_at"

// NewAudit inserts a freshly submitted audit in the pending state.
func (s *Store) NewAudit(ctx context.Context, a *Audit) (*Audit, error) {
	if a == nil {
		return nil, errors.New("audit is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.Acquisition == "" {
		a.Acquisition = AcquireAuto
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO audits (
            owner, mode, source_url, target_url, source_language, target_language,
            industry, glossary_id, acquisition, images_json, status,
            progress_step, progress_total, progress_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Owner,
		a.Mode,
		nullableString(a.SourceURL),
		nullableString(a.TargetURL),
		nullableString(a.SourceLanguage),
		nullableString(a.TargetLanguage),
		nullableString(a.Industry),
		nullableInt64(a.GlossaryID),
		a.Acquisition,
		nullableString(a.ImagesJSON),
		a.Status,
		a.ProgressStep,
		a.ProgressTotal,
		nullableString(a.ProgressMessage),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an audit by identifier. A missing row returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Audit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audits WHERE id = ?`, id)
	a, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit: %w", err)
	}
	return a, nil
}

// List returns the owner's audits newest first with offset pagination.
// An empty owner lists every audit.
func (s *Store) List(ctx context.Context, owner string, offset, limit int) ([]*Audit, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + auditColumns + ` FROM audits`
	args := make([]any, 0, 3)
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var audits []*Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// Count returns the number of audits visible to the owner.
func (s *Store) Count(ctx context.Context, owner string) (int, error) {
	query := `SELECT COUNT(1) FROM audits`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audits: %w", err)
	}
	return count, nil
}

// Update persists all mutable fields of an audit in a single row write.
// Zero rows affected means the audit was deleted mid-flight; callers treat
// the resulting ErrNotFound as a cooperative cancellation.
func (s *Store) Update(ctx context.Context, a *Audit) error {
	if a == nil {
		return errors.New("audit is nil")
	}
	a.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE audits
         SET mode = ?, source_url = ?, target_url = ?, source_language = ?, target_language = ?,
             industry = ?, glossary_id = ?, acquisition = ?, images_json = ?, status = ?,
             error_message = ?, blocked_reason = ?, degraded = ?,
             progress_step = ?, progress_total = ?, progress_message = ?, overall_score = ?,
             source_content_json = ?, target_content_json = ?, content_pairs_json = ?,
             source_snapshot = ?, target_snapshot = ?, actual_method = ?,
             input_tokens = ?, output_tokens = ?, cost_usd = ?, duration_ms = ?,
             updated_at = ?, completed_at = ?
         WHERE id = ?`,
		a.Mode,
		nullableString(a.SourceURL),
		nullableString(a.TargetURL),
		nullableString(a.SourceLanguage),
		nullableString(a.TargetLanguage),
		nullableString(a.Industry),
		nullableInt64(a.GlossaryID),
		a.Acquisition,
		nullableString(a.ImagesJSON),
		a.Status,
		nullableString(a.ErrorMessage),
		nullableString(a.BlockedReason),
		boolToInt(a.Degraded),
		a.ProgressStep,
		a.ProgressTotal,
		nullableString(a.ProgressMessage),
		nullableInt(a.OverallScore),
		nullableString(a.SourceContentJSON),
		nullableString(a.TargetContentJSON),
		nullableString(a.ContentPairsJSON),
		nullableString(a.SourceSnapshot),
		nullableString(a.TargetSnapshot),
		nullableString(a.ActualMethod),
		a.Usage.InputTokens,
		a.Usage.OutputTokens,
		a.Usage.CostUSD,
		a.Usage.DurationMS,
		a.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(a.CompletedAt),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update audit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes an audit and its dimension results in one transaction. The
// child delete is explicit so no orphans remain even on a connection where
// foreign keys were never enabled.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dimension_results WHERE audit_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete dimension results: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM audits WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete audit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return affected > 0, nil
}

// NextForStatuses returns the oldest audit matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Audit, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + auditColumns + ` FROM audits WHERE status IN (` + placeholders + `) ORDER BY created_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	a, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ReclaimStale resets audits left in scraping by an interrupted daemon back
// to pending so they re-run from a clean acquisition. Audits in analyzing are
// picked up again as-is; their progress fields replay naturally.
func (s *Store) ReclaimStale(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE audits
         SET status = ?, progress_step = 0, progress_total = 0,
             progress_message = 'Reclaimed after restart', updated_at = ?
         WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusScraping,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale audits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// RetryBlocked moves a blocked audit back to pending for a fresh acquisition
// attempt, discarding all partial evidence from the blocked run. The status
// guard in the WHERE clause makes the transition atomic: zero rows affected
// means the audit is missing or not blocked, and nothing was changed.
func (s *Store) RetryBlocked(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE audits
         SET status = ?, blocked_reason = NULL, error_message = NULL, degraded = 0,
             progress_step = 0, progress_total = 0, progress_message = 'Retry requested',
             source_content_json = NULL, target_content_json = NULL, content_pairs_json = NULL,
             source_snapshot = NULL, target_snapshot = NULL, actual_method = NULL,
             updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusBlocked,
	)
	if err != nil {
		return fmt.Errorf("retry blocked audit: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// ProceedBlocked accepts whatever evidence the blocked acquisition captured
// and releases the audit into analysis, marked degraded. Audits blocked with
// no snapshot and no extracted content cannot proceed.
func (s *Store) ProceedBlocked(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE audits
         SET status = ?, degraded = 1, error_message = NULL,
             progress_message = 'Proceeding with partial evidence', updated_at = ?
         WHERE id = ? AND status = ?
           AND (target_snapshot IS NOT NULL OR target_content_json IS NOT NULL)`,
		StatusAnalyzing,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusBlocked,
	)
	if err != nil {
		return fmt.Errorf("proceed blocked audit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if existing.Status == StatusBlocked {
		return fmt.Errorf("%w: audit %d has no snapshot or extracted content to proceed on", ErrNoEvidence, id)
	}
	return fmt.Errorf("%w: audit %d is %s", ErrInvalidTransition, id, existing.Status)
}

func (s *Store) checkTransition(ctx context.Context, res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: audit %d is %s", ErrInvalidTransition, id, existing.Status)
}

func scanAudit(scanner interface{ Scan(dest ...any) error }) (*Audit, error) {
	var (
		id              int64
		owner           sql.NullString
		modeStr         string
		sourceURL       sql.NullString
		targetURL       sql.NullString
		sourceLang      sql.NullString
		targetLang      sql.NullString
		industry        sql.NullString
		glossaryID      sql.NullInt64
		acquisitionStr  string
		imagesJSON      sql.NullString
		statusStr       string
		errorMessage    sql.NullString
		blockedReason   sql.NullString
		degraded        sql.NullInt64
		progressStep    sql.NullInt64
		progressTotal   sql.NullInt64
		progressMessage sql.NullString
		overallScore    sql.NullInt64
		sourceContent   sql.NullString
		targetContent   sql.NullString
		contentPairs    sql.NullString
		sourceSnapshot  sql.NullString
		targetSnapshot  sql.NullString
		actualMethod    sql.NullString
		inputTokens     sql.NullInt64
		outputTokens    sql.NullInt64
		costUSD         sql.NullFloat64
		durationMS      sql.NullInt64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		completedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&owner,
		&modeStr,
		&sourceURL,
		&targetURL,
		&sourceLang,
		&targetLang,
		&industry,
		&glossaryID,
		&acquisitionStr,
		&imagesJSON,
		&statusStr,
		&errorMessage,
		&blockedReason,
		&degraded,
		&progressStep,
		&progressTotal,
		&progressMessage,
		&overallScore,
		&sourceContent,
		&targetContent,
		&contentPairs,
		&sourceSnapshot,
		&targetSnapshot,
		&actualMethod,
		&inputTokens,
		&outputTokens,
		&costUSD,
		&durationMS,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	a := &Audit{
		ID:              id,
		Owner:           owner.String,
		Mode:            Mode(modeStr),
		SourceURL:       sourceURL.String,
		TargetURL:       targetURL.String,
		SourceLanguage:  sourceLang.String,
		TargetLanguage:  targetLang.String,
		Industry:        industry.String,
		Acquisition:     AcquisitionMode(acquisitionStr),
		ImagesJSON:      imagesJSON.String,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		BlockedReason:   blockedReason.String,
		ProgressStep:    int(progressStep.Int64),
		ProgressTotal:   int(progressTotal.Int64),
		ProgressMessage: progressMessage.String,
		SourceContentJSON: sourceContent.String,
		TargetContentJSON: targetContent.String,
		ContentPairsJSON:  contentPairs.String,
		SourceSnapshot:    sourceSnapshot.String,
		TargetSnapshot:    targetSnapshot.String,
		ActualMethod:      actualMethod.String,
		Usage: Usage{
			InputTokens:  inputTokens.Int64,
			OutputTokens: outputTokens.Int64,
			CostUSD:      costUSD.Float64,
			DurationMS:   durationMS.Int64,
		},
	}
	if glossaryID.Valid {
		v := glossaryID.Int64
		a.GlossaryID = &v
	}
	if degraded.Valid {
		a.Degraded = degraded.Int64 != 0
	}
	if overallScore.Valid {
		v := int(overallScore.Int64)
		a.OverallScore = &v
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		a.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		a.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			a.CompletedAt = &completed
		}
	}
	return a, nil
}
