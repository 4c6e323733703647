package glossary_test

import (
	"context"
	"errors"
	"testing"

	"locaudit/internal/audit"
	"locaudit/internal/glossary"
	"locaudit/internal/services"
	"locaudit/internal/testsupport"
)

func TestResolveExplicitGlossaryWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.SeedSystemGlossaries(ctx); err != nil {
		t.Fatalf("SeedSystemGlossaries failed: %v", err)
	}
	custom, err := store.CreateGlossary(ctx, &audit.Glossary{
		Owner:          "alice",
		Name:           "Custom Terms",
		Industry:       "ecommerce",
		SourceLanguage: "en",
		TargetLanguage: "ko",
	})
	if err != nil {
		t.Fatalf("CreateGlossary failed: %v", err)
	}

	resolver := glossary.NewResolver(store)
	a := &audit.Audit{Industry: "ecommerce", SourceLanguage: "en", TargetLanguage: "ko", GlossaryID: &custom.ID}
	g, err := resolver.Resolve(ctx, a)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if g == nil || g.ID != custom.ID {
		t.Fatalf("expected explicit glossary, got %#v", g)
	}
}

func TestResolveMissingExplicitGlossaryFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	resolver := glossary.NewResolver(store)

	missing := int64(9999)
	a := &audit.Audit{GlossaryID: &missing}
	_, err := resolver.Resolve(context.Background(), a)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveFallsBackToSystemThenGeneral(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.SeedSystemGlossaries(ctx); err != nil {
		t.Fatalf("SeedSystemGlossaries failed: %v", err)
	}
	general, err := store.CreateGlossary(ctx, &audit.Glossary{
		Name:           "General Terms",
		Industry:       glossary.GeneralIndustry,
		SourceLanguage: "en",
		TargetLanguage: "ko",
		IsSystem:       true,
	})
	if err != nil {
		t.Fatalf("CreateGlossary failed: %v", err)
	}

	resolver := glossary.NewResolver(store)

	g, err := resolver.Resolve(ctx, &audit.Audit{Industry: "adtech", SourceLanguage: "en", TargetLanguage: "ko"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if g == nil || g.Name != "Ad Tech Standard Terms" {
		t.Fatalf("expected industry glossary, got %#v", g)
	}

	// Unknown industry for the pair falls through to general.
	g, err = resolver.Resolve(ctx, &audit.Audit{Industry: "fintech", SourceLanguage: "en", TargetLanguage: "ko"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if g == nil || g.ID != general.ID {
		t.Fatalf("expected general glossary, got %#v", g)
	}

	// No match anywhere resolves to no glossary without error.
	g, err = resolver.Resolve(ctx, &audit.Audit{Industry: "fintech", SourceLanguage: "en", TargetLanguage: "de"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if g != nil {
		t.Fatalf("expected nil glossary, got %#v", g)
	}
}
