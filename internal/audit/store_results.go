package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// ReplaceResults swaps an audit's dimension results in one transaction.
// Positions are assigned from slice order, which the analysis stage has
// already sorted ascending by score.
func (s *Store) ReplaceResults(ctx context.Context, auditID int64, results []DimensionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dimension_results WHERE audit_id = ?`, auditID); err != nil {
		return fmt.Errorf("clear dimension results: %w", err)
	}

	for position, result := range results {
		findingsJSON, err := encodeResultList(result.Findings)
		if err != nil {
			return fmt.Errorf("encode findings for %s: %w", result.Dimension, err)
		}
		examplesJSON, err := encodeResultList(result.GoodExamples)
		if err != nil {
			return fmt.Errorf("encode good examples for %s: %w", result.Dimension, err)
		}
		recommendationsJSON, err := encodeResultList(result.Recommendations)
		if err != nil {
			return fmt.Errorf("encode recommendations for %s: %w", result.Dimension, err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO dimension_results (
                audit_id, dimension, score, findings_json, good_examples_json,
                recommendations_json, position
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			auditID,
			result.Dimension,
			result.Score,
			nullableString(findingsJSON),
			nullableString(examplesJSON),
			nullableString(recommendationsJSON),
			position,
		); err != nil {
			return fmt.Errorf("insert dimension result %s: %w", result.Dimension, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// ResultsFor returns an audit's dimension results in report order.
func (s *Store) ResultsFor(ctx context.Context, auditID int64) ([]DimensionResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, audit_id, dimension, score, findings_json, good_examples_json,
                recommendations_json, position
         FROM dimension_results WHERE audit_id = ? ORDER BY position, id`,
		auditID,
	)
	if err != nil {
		return nil, fmt.Errorf("query dimension results: %w", err)
	}
	defer rows.Close()

	var results []DimensionResult
	for rows.Next() {
		var (
			result              DimensionResult
			dimensionStr        string
			findingsJSON        sql.NullString
			examplesJSON        sql.NullString
			recommendationsJSON sql.NullString
		)
		if err := rows.Scan(
			&result.ID,
			&result.AuditID,
			&dimensionStr,
			&result.Score,
			&findingsJSON,
			&examplesJSON,
			&recommendationsJSON,
			&result.Position,
		); err != nil {
			return nil, fmt.Errorf("scan dimension result: %w", err)
		}
		result.Dimension = Dimension(dimensionStr)
		if err := decodeResultList(findingsJSON.String, &result.Findings); err != nil {
			return nil, fmt.Errorf("decode findings for %s: %w", result.Dimension, err)
		}
		if err := decodeResultList(examplesJSON.String, &result.GoodExamples); err != nil {
			return nil, fmt.Errorf("decode good examples for %s: %w", result.Dimension, err)
		}
		if err := decodeResultList(recommendationsJSON.String, &result.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations for %s: %w", result.Dimension, err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func encodeResultList[T any](list []T) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeResultList[T any](raw string, out *[]T) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}
