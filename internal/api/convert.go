package api

import "locaudit/internal/audit"

// FromAudit converts a stored audit into its wire representation without
// loading dimension results.
func FromAudit(a *audit.Audit) AuditView {
	return auditToView(a, nil)
}

func auditToView(a *audit.Audit, results []audit.DimensionResult) AuditView {
	view := AuditView{
		ID:             a.ID,
		Owner:          a.Owner,
		Mode:           string(a.Mode),
		SourceURL:      a.SourceURL,
		TargetURL:      a.TargetURL,
		SourceLanguage: a.SourceLanguage,
		TargetLanguage: a.TargetLanguage,
		Industry:       a.Industry,
		GlossaryID:     a.GlossaryID,
		Acquisition:    string(a.Acquisition),
		ActualMethod:   a.ActualMethod,

		Status:        string(a.Status),
		ErrorMessage:  a.ErrorMessage,
		BlockedReason: a.BlockedReason,
		Degraded:      a.Degraded,

		ProgressStep:    a.ProgressStep,
		ProgressTotal:   a.ProgressTotal,
		ProgressMessage: a.ProgressMessage,

		OverallScore: a.OverallScore,
		Usage: UsageView{
			InputTokens:  a.Usage.InputTokens,
			OutputTokens: a.Usage.OutputTokens,
			CostUSD:      a.Usage.CostUSD,
			DurationMS:   a.Usage.DurationMS,
		},

		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		CompletedAt: a.CompletedAt,
	}
	for _, result := range results {
		view.Results = append(view.Results, resultToView(result))
	}
	return view
}

func resultToView(result audit.DimensionResult) DimensionResultView {
	view := DimensionResultView{
		Dimension:       string(result.Dimension),
		Score:           result.Score,
		Recommendations: result.Recommendations,
		Position:        result.Position,
	}
	for _, f := range result.Findings {
		view.Findings = append(view.Findings, FindingView{
			Kind:       string(f.Kind),
			Issue:      f.Issue,
			Source:     f.Source,
			Target:     f.Target,
			Text:       f.Text,
			Suggestion: f.Suggestion,
			Severity:   string(f.Severity),
		})
	}
	for _, e := range result.GoodExamples {
		view.GoodExamples = append(view.GoodExamples, GoodExampleView{
			Description: e.Description,
			Source:      e.Source,
			Target:      e.Target,
			Text:        e.Text,
		})
	}
	return view
}

func glossaryToView(g *audit.Glossary, includeTerms bool) GlossaryView {
	termCount := g.TermCount
	if len(g.Terms) > 0 {
		termCount = len(g.Terms)
	}
	view := GlossaryView{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		Industry:       g.Industry,
		SourceLanguage: g.SourceLanguage,
		TargetLanguage: g.TargetLanguage,
		IsSystem:       g.IsSystem,
		TermCount:      termCount,
	}
	if includeTerms {
		for _, term := range g.Terms {
			view.Terms = append(view.Terms, GlossaryTermView{
				SourceTerm: term.SourceTerm,
				TargetTerm: term.TargetTerm,
				Context:    term.Context,
				Notes:      term.Notes,
			})
		}
	}
	return view
}
