package testsupport

import (
	"context"
	"testing"

	"locaudit/internal/audit"
	"locaudit/internal/config"
)

// MustOpenStore opens an audit.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *audit.Store {
	t.Helper()

	store, err := audit.Open(cfg)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewComparisonAudit creates a pending comparison audit for tests.
func NewComparisonAudit(t testing.TB, store *audit.Store, sourceURL, targetURL string) *audit.Audit {
	t.Helper()

	a, err := store.NewAudit(context.Background(), &audit.Audit{
		Mode:           audit.ModeComparison,
		SourceURL:      sourceURL,
		TargetURL:      targetURL,
		SourceLanguage: "en",
		TargetLanguage: "ko",
		Industry:       "ecommerce",
		Acquisition:    audit.AcquireAuto,
	})
	if err != nil {
		t.Fatalf("store.NewAudit: %v", err)
	}
	return a
}
