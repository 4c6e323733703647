package audit_test

import (
	"context"
	"testing"

	"locaudit/internal/audit"
	"locaudit/internal/testsupport"
)

func TestSeedSystemGlossariesIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seeded, err := store.SeedSystemGlossaries(ctx)
	if err != nil {
		t.Fatalf("SeedSystemGlossaries failed: %v", err)
	}
	if seeded != 3 {
		t.Fatalf("expected 3 seeded glossaries, got %d", seeded)
	}

	seeded, err = store.SeedSystemGlossaries(ctx)
	if err != nil {
		t.Fatalf("second SeedSystemGlossaries failed: %v", err)
	}
	if seeded != 0 {
		t.Fatalf("expected reseed to be a no-op, seeded %d", seeded)
	}

	count, err := store.CountSystemGlossaries(ctx)
	if err != nil {
		t.Fatalf("CountSystemGlossaries failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 system glossaries, got %d", count)
	}
}

func TestFindSystemGlossaryMatchesIndustryAndPair(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.SeedSystemGlossaries(ctx); err != nil {
		t.Fatalf("SeedSystemGlossaries failed: %v", err)
	}

	g, err := store.FindSystemGlossary(ctx, "ecommerce", "en", "ko")
	if err != nil {
		t.Fatalf("FindSystemGlossary failed: %v", err)
	}
	if g == nil || g.Name != "E-commerce Standard Terms" {
		t.Fatalf("unexpected glossary: %#v", g)
	}
	if len(g.Terms) != 20 {
		t.Fatalf("expected 20 terms, got %d", len(g.Terms))
	}

	g, err = store.FindSystemGlossary(ctx, "ecommerce", "en", "ja")
	if err != nil {
		t.Fatalf("FindSystemGlossary failed: %v", err)
	}
	if g != nil {
		t.Fatalf("expected no glossary for unmatched pair, got %#v", g)
	}
}

func TestCreateGlossaryWithTerms(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	created, err := store.CreateGlossary(ctx, &audit.Glossary{
		Owner:          "alice",
		Name:           "Brand Terms",
		Industry:       "ecommerce",
		SourceLanguage: "en",
		TargetLanguage: "ko",
		Terms: []audit.GlossaryTerm{
			{SourceTerm: "Acme Plus", TargetTerm: "Acme Plus", Notes: "never translate"},
		},
	})
	if err != nil {
		t.Fatalf("CreateGlossary failed: %v", err)
	}
	if created.ID == 0 || created.IsSystem {
		t.Fatalf("unexpected created glossary: %#v", created)
	}
	if len(created.Terms) != 1 || created.Terms[0].Notes != "never translate" {
		t.Fatalf("terms not persisted: %#v", created.Terms)
	}

	listed, err := store.ListGlossaries(ctx, "alice")
	if err != nil {
		t.Fatalf("ListGlossaries failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected listing: %#v", listed)
	}

	// Another owner must not see alice's glossary.
	listed, err = store.ListGlossaries(ctx, "bob")
	if err != nil {
		t.Fatalf("ListGlossaries failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty listing for other owner, got %#v", listed)
	}
}
