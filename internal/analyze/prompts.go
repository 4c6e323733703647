package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"locaudit/internal/audit"
	"locaudit/internal/content"
	"locaudit/internal/language"
)

var dimensionGuidance = map[audit.Dimension]string{
	audit.DimensionCorrectness:         "Translation accuracy, grammar, spelling, terminology fidelity.",
	audit.DimensionCulturalRelevance:   "Cultural adaptation, idioms, imagery appropriateness, tone.",
	audit.DimensionIndustryExpertise:   "Domain-specific terminology accuracy, compliance, glossary adherence.",
	audit.DimensionFluency:             "Natural reading flow in the target language, sentence structure.",
	audit.DimensionConsistency:         "Uniform terminology usage throughout, brand terms handling.",
	audit.DimensionCompleteness:        "Detection of missing or untranslated content and leftover placeholders.",
	audit.DimensionUIUX:                "Date/time formats, currency, measurements, layout considerations.",
	audit.DimensionSEO:                 "Meta tags, keyword localization, title optimization.",
	audit.DimensionLanguageProficiency: "Native-speaker-level command of the target language: grammar, orthography, register, and idiomatic usage.",
}

const comparisonRole = "You are an expert localization quality auditor with deep knowledge of " +
	"translation quality assessment, cultural adaptation, and industry-specific terminology. " +
	"You evaluate localized website content against the original source content."

const standaloneRole = "You are an expert localization quality auditor specializing in " +
	"assessment without a source reference. You evaluate localized website content on its " +
	"own merits, inferring the intended meaning where needed."

const proficiencyRole = "You are an expert linguist assessing whether website copy reads as " +
	"written by a proficient native speaker of the target language."

// SystemPrompt returns the auditor framing for the audit mode.
func SystemPrompt(mode audit.Mode) string {
	switch mode {
	case audit.ModeStandalone:
		return standaloneRole
	case audit.ModeProficiency:
		return proficiencyRole
	default:
		return comparisonRole
	}
}

const comparisonContract = `Respond with a single JSON object and nothing else:
{
  "score": <int 0-100>,
  "findings": [
    {"issue": "<description>", "source": "<exact source text>", "target": "<exact localized text>", "suggestion": "<corrected translation>", "severity": "high|medium|low"}
  ],
  "good_examples": [
    {"description": "<why this is well done>", "source": "<source text>", "target": "<localized text>"}
  ],
  "recommendations": ["<actionable recommendation>"]
}
Always quote the actual text from the page in source and target; never invent content.`

const standaloneContract = `Respond with a single JSON object and nothing else:
{
  "score": <int 0-100>,
  "findings": [
    {"issue": "<description>", "text": "<exact text from the page>", "suggestion": "<improved text>", "severity": "high|medium|low"}
  ],
  "good_examples": [
    {"description": "<why this is well done>", "text": "<text from the page>"}
  ],
  "recommendations": ["<actionable recommendation>"]
}
Always quote the actual text from the page in text; never invent content.`

// PromptInput carries everything a single dimension judgment needs.
type PromptInput struct {
	Audit    *audit.Audit
	Pairs    *content.Pairs
	Glossary *audit.Glossary
	HasImage bool
}

// UserPrompt renders the evidence and the output contract for one dimension.
func UserPrompt(in PromptInput, dimension audit.Dimension) (string, error) {
	a := in.Audit
	var sb strings.Builder

	fmt.Fprintf(&sb, "Evaluate the dimension %s: %s\n\n", dimension, dimensionGuidance[dimension])

	if a.Mode == audit.ModeComparison {
		fmt.Fprintf(&sb, "Source language: %s\n", describeLanguage(a.SourceLanguage))
	}
	fmt.Fprintf(&sb, "Target language: %s\n", describeLanguage(a.TargetLanguage))
	if a.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", a.Industry)
	}
	if a.Degraded {
		sb.WriteString("Note: page acquisition was partially blocked; evidence may be incomplete. Judge only what is present.\n")
	}
	sb.WriteString("\n")

	if in.Glossary != nil && len(in.Glossary.Terms) > 0 {
		fmt.Fprintf(&sb, "Glossary (%s):\n", in.Glossary.Name)
		for _, term := range in.Glossary.Terms {
			if term.TargetTerm != "" {
				fmt.Fprintf(&sb, "- %q -> %q", term.SourceTerm, term.TargetTerm)
			} else {
				fmt.Fprintf(&sb, "- %q", term.SourceTerm)
			}
			if term.Context != "" {
				fmt.Fprintf(&sb, " (%s)", term.Context)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	switch {
	case in.Pairs != nil:
		encoded, err := json.MarshalIndent(in.Pairs, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode content pairs: %w", err)
		}
		if a.Mode == audit.ModeComparison {
			sb.WriteString("Aligned page content (positional source/target pairs; a missing side means that element is absent on that page):\n")
		} else {
			sb.WriteString("Extracted page content (target side only):\n")
		}
		sb.Write(encoded)
		sb.WriteString("\n\n")
	case in.HasImage:
		sb.WriteString("Evaluate the attached page screenshots. Images labeled source show the original page; images labeled target show the localized page.\n\n")
	default:
		return "", fmt.Errorf("no evidence available for dimension %s", dimension)
	}

	if a.Mode == audit.ModeComparison {
		sb.WriteString(comparisonContract)
	} else {
		sb.WriteString(standaloneContract)
	}
	return sb.String(), nil
}

func describeLanguage(code string) string {
	if code == "" {
		return "unknown"
	}
	if name := language.DisplayName(code); name != "" {
		return fmt.Sprintf("%s (%s)", name, code)
	}
	return code
}
