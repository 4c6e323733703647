package glossary

import (
	"context"
	"fmt"

	"locaudit/internal/audit"
	"locaudit/internal/services"
)

// GeneralIndustry is the catch-all industry used when no industry-specific
// system glossary exists for an audit's language pair.
const GeneralIndustry = "general"

// MaxTerms caps how many glossary terms feed into a judgment prompt.
const MaxTerms = 50

type store interface {
	GlossaryByID(ctx context.Context, id int64) (*audit.Glossary, error)
	FindSystemGlossary(ctx context.Context, industry, sourceLanguage, targetLanguage string) (*audit.Glossary, error)
}

// Resolver picks the glossary an audit evaluates terminology against.
type Resolver struct {
	store store
}

// NewResolver constructs a Resolver backed by the audit store.
func NewResolver(s store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the glossary for an audit, or nil when none applies.
// Resolution is deterministic: an explicitly requested glossary wins, then
// the system glossary matching the audit's industry and language pair, then
// the general-industry system glossary for the pair. A missing explicit
// glossary is an error; a missing system match is not.
func (r *Resolver) Resolve(ctx context.Context, a *audit.Audit) (*audit.Glossary, error) {
	if a.GlossaryID != nil {
		g, err := r.store.GlossaryByID(ctx, *a.GlossaryID)
		if err != nil {
			return nil, fmt.Errorf("resolve glossary %d: %w", *a.GlossaryID, err)
		}
		if g == nil {
			return nil, services.Wrap(services.ErrNotFound, "analysis", "resolve glossary",
				fmt.Sprintf("glossary %d does not exist", *a.GlossaryID), nil)
		}
		return capTerms(g), nil
	}

	if a.Industry != "" {
		g, err := r.store.FindSystemGlossary(ctx, a.Industry, a.SourceLanguage, a.TargetLanguage)
		if err != nil {
			return nil, fmt.Errorf("find system glossary: %w", err)
		}
		if g != nil {
			return capTerms(g), nil
		}
	}

	g, err := r.store.FindSystemGlossary(ctx, GeneralIndustry, a.SourceLanguage, a.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("find general glossary: %w", err)
	}
	return capTerms(g), nil
}

func capTerms(g *audit.Glossary) *audit.Glossary {
	if g == nil || len(g.Terms) <= MaxTerms {
		return g
	}
	g.Terms = g.Terms[:MaxTerms]
	return g
}
