package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const glossaryColumns = "id, owner, name, description, industry, source_language, target_language, is_system, created_at, updated_at"

// CreateGlossary inserts a glossary together with its terms.
func (s *Store) CreateGlossary(ctx context.Context, g *Glossary) (*Glossary, error) {
	if g == nil {
		return nil, errors.New("glossary is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin glossary tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO glossaries (
            owner, name, description, industry, source_language, target_language,
            is_system, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Owner,
		g.Name,
		nullableString(g.Description),
		g.Industry,
		g.SourceLanguage,
		g.TargetLanguage,
		boolToInt(g.IsSystem),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert glossary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, term := range g.Terms {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO glossary_terms (glossary_id, source_term, target_term, context, notes)
             VALUES (?, ?, ?, ?, ?)`,
			id,
			term.SourceTerm,
			nullableString(term.TargetTerm),
			nullableString(term.Context),
			nullableString(term.Notes),
		); err != nil {
			return nil, fmt.Errorf("insert glossary term %q: %w", term.SourceTerm, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit glossary: %w", err)
	}
	return s.GlossaryByID(ctx, id)
}

// GlossaryByID fetches a glossary with its terms. A missing row returns nil, nil.
func (s *Store) GlossaryByID(ctx context.Context, id int64) (*Glossary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+glossaryColumns+` FROM glossaries WHERE id = ?`, id)
	g, err := scanGlossary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get glossary: %w", err)
	}
	if err := s.loadGlossaryTerms(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// FindSystemGlossary returns the system glossary matching an industry and
// language pair. The lowest id wins when several match, keeping resolution
// deterministic. A missing match returns nil, nil.
func (s *Store) FindSystemGlossary(ctx context.Context, industry, sourceLanguage, targetLanguage string) (*Glossary, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+glossaryColumns+` FROM glossaries
         WHERE is_system = 1 AND industry = ? AND source_language = ? AND target_language = ?
         ORDER BY id LIMIT 1`,
		industry,
		sourceLanguage,
		targetLanguage,
	)
	g, err := scanGlossary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find system glossary: %w", err)
	}
	if err := s.loadGlossaryTerms(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGlossaries returns system glossaries plus the owner's glossaries,
// without terms, ordered by industry then name.
func (s *Store) ListGlossaries(ctx context.Context, owner string) ([]*Glossary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+glossaryColumns+`,
            (SELECT COUNT(1) FROM glossary_terms WHERE glossary_id = glossaries.id)
         FROM glossaries
         WHERE is_system = 1 OR owner = ?
         ORDER BY industry, name`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list glossaries: %w", err)
	}
	defer rows.Close()

	var glossaries []*Glossary
	for rows.Next() {
		g, err := scanGlossaryWithCount(rows)
		if err != nil {
			return nil, err
		}
		glossaries = append(glossaries, g)
	}
	return glossaries, rows.Err()
}

// CountSystemGlossaries reports how many system glossaries exist.
func (s *Store) CountSystemGlossaries(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM glossaries WHERE is_system = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count system glossaries: %w", err)
	}
	return count, nil
}

func (s *Store) loadGlossaryTerms(ctx context.Context, g *Glossary) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, glossary_id, source_term, target_term, context, notes
         FROM glossary_terms WHERE glossary_id = ? ORDER BY id`,
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("query glossary terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			term       GlossaryTerm
			targetTerm sql.NullString
			termCtx    sql.NullString
			notes      sql.NullString
		)
		if err := rows.Scan(&term.ID, &term.GlossaryID, &term.SourceTerm, &targetTerm, &termCtx, &notes); err != nil {
			return fmt.Errorf("scan glossary term: %w", err)
		}
		term.TargetTerm = targetTerm.String
		term.Context = termCtx.String
		term.Notes = notes.String
		g.Terms = append(g.Terms, term)
	}
	return rows.Err()
}

func scanGlossary(scanner interface{ Scan(dest ...any) error }) (*Glossary, error) {
	var (
		g           Glossary
		owner       sql.NullString
		description sql.NullString
		isSystem    sql.NullInt64
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&g.ID,
		&owner,
		&g.Name,
		&description,
		&g.Industry,
		&g.SourceLanguage,
		&g.TargetLanguage,
		&isSystem,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	g.Owner = owner.String
	g.Description = description.String
	if isSystem.Valid {
		g.IsSystem = isSystem.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		g.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		g.UpdatedAt = updated
	}
	return &g, nil
}

func scanGlossaryWithCount(scanner interface{ Scan(dest ...any) error }) (*Glossary, error) {
	var (
		g           Glossary
		owner       sql.NullString
		description sql.NullString
		isSystem    sql.NullInt64
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&g.ID,
		&owner,
		&g.Name,
		&description,
		&g.Industry,
		&g.SourceLanguage,
		&g.TargetLanguage,
		&isSystem,
		&createdRaw,
		&updatedRaw,
		&g.TermCount,
	); err != nil {
		return nil, err
	}
	g.Owner = owner.String
	g.Description = description.String
	if isSystem.Valid {
		g.IsSystem = isSystem.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		g.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		g.UpdatedAt = updated
	}
	return &g, nil
}
