package audit

import (
	"context"
	"path/filepath"
	"testing"
)

// Deletes must leave no dimension results behind even when every statement
// runs on a brand-new pool connection.
func TestRemoveLeavesNoOrphansAcrossPoolConnections(t *testing.T) {
	store, err := OpenPath(filepath.Join(t.TempDir(), "audits.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	defer store.Close()

	// Retire connections immediately so pooled per-connection state cannot
	// mask a cascade that only one connection was configured for.
	store.db.SetMaxIdleConns(0)

	ctx := context.Background()

	var fkEnabled int
	if err := store.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("read foreign_keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Fatalf("expected foreign_keys enabled on a fresh connection, got %d", fkEnabled)
	}

	a, err := store.NewAudit(ctx, &Audit{
		Mode:      ModeComparison,
		SourceURL: "https://example.com",
		TargetURL: "https://example.com/ko",
	})
	if err != nil {
		t.Fatalf("NewAudit failed: %v", err)
	}

	results := []DimensionResult{
		{Dimension: DimensionCorrectness, Score: 70},
		{Dimension: DimensionFluency, Score: 85},
	}
	if err := store.ReplaceResults(ctx, a.ID, results); err != nil {
		t.Fatalf("ReplaceResults failed: %v", err)
	}

	removed, err := store.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected Remove to report a deleted row")
	}

	var remaining int
	if err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dimension_results WHERE audit_id = ?`, a.ID).Scan(&remaining); err != nil {
		t.Fatalf("count dimension results: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected no dimension results after delete, found %d", remaining)
	}
}
