package audit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"locaudit/internal/audit"
	"locaudit/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")
	if a.ID == 0 {
		t.Fatal("expected audit ID to be assigned")
	}
	if a.Status != audit.StatusPending {
		t.Fatalf("expected pending status, got %s", a.Status)
	}

	fetched, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.TargetURL != "https://example.com/ko" {
		t.Fatalf("unexpected fetched audit: %#v", fetched)
	}
	if fetched.Mode != audit.ModeComparison {
		t.Fatalf("expected comparison mode, got %s", fetched.Mode)
	}
}

func TestUpdateRoundTripsAllFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")

	score := 87
	a.Status = audit.StatusCompleted
	a.OverallScore = &score
	a.ActualMethod = "text"
	a.SetProgress(4, 4, "Done")
	a.Usage = audit.Usage{InputTokens: 1200, OutputTokens: 340, CostUSD: 0.0087, DurationMS: 4200}
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.OverallScore == nil || *fetched.OverallScore != 87 {
		t.Fatalf("expected overall score 87, got %v", fetched.OverallScore)
	}
	if fetched.Usage.InputTokens != 1200 || fetched.Usage.CostUSD != 0.0087 {
		t.Fatalf("unexpected usage: %+v", fetched.Usage)
	}
	if fetched.ProgressStep != 4 || fetched.ProgressMessage != "Done" {
		t.Fatalf("unexpected progress: %d %q", fetched.ProgressStep, fetched.ProgressMessage)
	}
}

func TestUpdateDeletedAuditReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")

	removed, err := store.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}

	if err := store.Update(ctx, a); !errors.Is(err, audit.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	removedAgain, err := store.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if removedAgain {
		t.Fatal("expected second removal to report missing row")
	}
}

func TestListNewestFirstWithPagination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 5; i++ {
		a := testsupport.NewComparisonAudit(t, store,
			fmt.Sprintf("https://example.com/%d", i),
			fmt.Sprintf("https://example.com/ko/%d", i))
		ids = append(ids, a.ID)
	}

	page, err := store.List(ctx, "", 0, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 audits, got %d", len(page))
	}
	if page[0].ID != ids[4] || page[1].ID != ids[3] {
		t.Fatalf("expected newest first, got %d then %d", page[0].ID, page[1].ID)
	}

	page, err = store.List(ctx, "", 4, 2)
	if err != nil {
		t.Fatalf("List offset failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[0] {
		t.Fatalf("unexpected final page: %#v", page)
	}

	count, err := store.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected count 5, got %d", count)
	}
}

func TestListFiltersByOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	mine, err := store.NewAudit(ctx, &audit.Audit{
		Mode:      audit.ModeStandalone,
		Owner:     "alice",
		TargetURL: "https://example.com/ko",
	})
	if err != nil {
		t.Fatalf("NewAudit failed: %v", err)
	}
	if _, err := store.NewAudit(ctx, &audit.Audit{
		Mode:      audit.ModeStandalone,
		Owner:     "bob",
		TargetURL: "https://example.org/ko",
	}); err != nil {
		t.Fatalf("NewAudit failed: %v", err)
	}

	audits, err := store.List(ctx, "alice", 0, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(audits) != 1 || audits[0].ID != mine.ID {
		t.Fatalf("expected only alice's audit, got %#v", audits)
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewComparisonAudit(t, store, "https://a.test", "https://a.test/ko")
	second := testsupport.NewComparisonAudit(t, store, "https://b.test", "https://b.test/ko")

	next, err := store.NextForStatuses(ctx, audit.StatusPending, audit.StatusAnalyzing)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending audit %d, got %#v", first.ID, next)
	}

	first.Status = audit.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	next, err = store.NextForStatuses(ctx, audit.StatusPending, audit.StatusAnalyzing)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected next pending audit %d, got %#v", second.ID, next)
	}
}

func TestRetryBlockedClearsEvidence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")
	a.SetBlocked("challenge page detected")
	a.TargetSnapshot = "/tmp/snap.png"
	a.TargetContentJSON = `{"url":"https://example.com/ko"}`
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := store.RetryBlocked(ctx, a.ID); err != nil {
		t.Fatalf("RetryBlocked failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != audit.StatusPending {
		t.Fatalf("expected pending, got %s", fetched.Status)
	}
	if fetched.BlockedReason != "" || fetched.TargetSnapshot != "" || fetched.TargetContentJSON != "" {
		t.Fatalf("expected blocked evidence cleared, got %#v", fetched)
	}
}

func TestRetryBlockedRejectsOtherStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")

	err := store.RetryBlocked(ctx, a.ID)
	if !errors.Is(err, audit.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := store.RetryBlocked(ctx, a.ID+100); !errors.Is(err, audit.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing audit, got %v", err)
	}
}

func TestProceedBlockedRequiresEvidence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")
	a.SetBlocked("challenge page detected")
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Blocked with nothing captured: proceed has no evidence to analyze.
	err := store.ProceedBlocked(ctx, a.ID)
	if !errors.Is(err, audit.ErrNoEvidence) {
		t.Fatalf("expected ErrNoEvidence without evidence, got %v", err)
	}
	if errors.Is(err, audit.ErrInvalidTransition) {
		t.Fatalf("no-evidence refusal must not read as an invalid transition: %v", err)
	}

	a.TargetSnapshot = "/tmp/snap.png"
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.ProceedBlocked(ctx, a.ID); err != nil {
		t.Fatalf("ProceedBlocked failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != audit.StatusAnalyzing {
		t.Fatalf("expected analyzing, got %s", fetched.Status)
	}
	if !fetched.Degraded {
		t.Fatal("expected degraded flag set after proceed")
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewComparisonAudit(t, store, "https://example.com", "https://example.com/ko")
	b := testsupport.NewComparisonAudit(t, store, "https://example.org", "https://example.org/ko")
	b.Status = audit.StatusAnalyzing
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	_ = a

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Working != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.TableExists || !dbHealth.IntegrityCheck {
		t.Fatalf("unexpected database health: %+v", dbHealth)
	}
}
