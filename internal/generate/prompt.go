// Copyright Tales Pardini, 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// initialPromptTmpl turns a PICOTT clinical question into the first
// PubMed query. The instructions pin the output format: a bare query
// string restricted to [tiab] qualifiers, no MeSH and no filters, so
// the refinement loop starts from a predictable shape.
var initialPromptTmpl = template.Must(template.New("initial").Parse(`You are a specialist in biomedical literature search methodology for PubMed.

Analyze a clinical question in PICOTT format (Population, Intervention, Comparison, Outcome, study Type, Time) and transform it into an optimized PubMed query.

RULES:
1. Use ONLY [tiab] (title/abstract) qualifiers for each term
2. Use boolean operators (AND, OR) appropriately
3. Group related terms with parentheses
4. Include important synonyms for each concept
5. Do NOT use MeSH terms at this initial stage
6. Do NOT use filters such as "Humans" or date limits
7. Keep the query focused on the PICOTT elements provided

RESPONSE FORMAT:
Return ONLY the PubMed query string, with no explanation or extra text.

CLINICAL QUESTION (PICOTT):
{{.Picott}}
`))

// refinePromptTmpl rewrites an unsatisfactory query. It embeds the
// evaluation metrics and diagnosed issues so the model knows which
// direction to move, plus sampled abstracts when available so new terms
// come from the vocabulary of the current result set.
var refinePromptTmpl = template.Must(template.New("refine").Parse(`You are a specialist in biomedical literature search methodology for PubMed.

Your task is to SIGNIFICANTLY refine an existing PubMed query based on the results it produced and its evaluation metrics.

CURRENT QUERY:
{{.Query}}

EVALUATION:
- Total results: {{.TotalCount}}
- Primary studies ratio: {{printf "%.2f" .PrimaryRatio}}
- Systematic reviews ratio: {{printf "%.2f" .ReviewRatio}}
- Average relevance: {{printf "%.2f" .Relevance}}

IDENTIFIED ISSUES:
{{.Issues}}
{{if .Abstracts}}
SAMPLED ABSTRACTS FROM THE CURRENT RESULTS:
{{range .Abstracts}}- {{.Title}}: {{.Abstract}}
{{end}}{{end}}
GUIDELINES:
1. Always keep the POPULATION and INTERVENTION elements as the strongest part of the query, even if other aspects must be removed.
2. NEVER include extremely generic terms that match millions of records: "study"[tiab], "research"[tiab], "patients"[tiab] without a qualifier, "results"[tiab], "effects"[tiab], "treatment"[tiab] unless intervention-specific, "evidence"[tiab], "data"[tiab].
3. For the population, add 2-3 specific synonyms and relevant qualifiers (age ranges, associated conditions).
4. For drug interventions, include relevant brand names alongside the generic name.
5. If there are too few results (under 50): keep population and intervention but REMOVE outcome terms, time restrictions, comparison terms, and restrictive qualifiers.
6. If there are too many results (over 300): ADD outcome and time specifications, use quoted phrases for population and intervention, and add focusing qualifiers.
7. If relevance is low: make the population terms more specific and replace weak terms with focused alternatives.
8. Use at most 5 synonyms per concept.
9. Your changes must be substantial enough to shift at least 30% of the results.

RESPONSE FORMAT:
Return ONLY the refined PubMed query string, with no explanation or extra text.
`))

// refinePromptData feeds refinePromptTmpl.
type refinePromptData struct {
	Query        string
	TotalCount   int
	PrimaryRatio float64
	ReviewRatio  float64
	Relevance    float64
	Issues       string
	Abstracts    []types.Abstract
}

// maxPromptAbstracts caps how many sampled abstracts are embedded in a
// refinement prompt.
const maxPromptAbstracts = 10

// maxAbstractChars truncates each embedded abstract to keep the prompt
// within reasonable token limits.
const maxAbstractChars = 600

func renderInitialPrompt(picottText string) (string, error) {
	var buf bytes.Buffer
	err := initialPromptTmpl.Execute(&buf, struct{ Picott string }{Picott: picottText})
	if err != nil {
		return "", fmt.Errorf("rendering initial prompt: %w", err)
	}
	return buf.String(), nil
}

func renderRefinePrompt(query string, ev types.Evaluation, abstracts []types.Abstract) (string, error) {
	if len(abstracts) > maxPromptAbstracts {
		abstracts = abstracts[:maxPromptAbstracts]
	}
	trimmed := make([]types.Abstract, len(abstracts))
	for i, a := range abstracts {
		if len(a.Abstract) > maxAbstractChars {
			a.Abstract = a.Abstract[:maxAbstractChars] + "..."
		}
		trimmed[i] = a
	}

	var buf bytes.Buffer
	err := refinePromptTmpl.Execute(&buf, refinePromptData{
		Query:        query,
		TotalCount:   ev.TotalCount,
		PrimaryRatio: ev.PrimaryStudiesRatio,
		ReviewRatio:  ev.SystematicReviewsRatio,
		Relevance:    ev.AverageRelevance,
		Issues:       ev.IssueSummary(),
		Abstracts:    trimmed,
	})
	if err != nil {
		return "", fmt.Errorf("rendering refine prompt: %w", err)
	}
	return buf.String(), nil
}

// cleanResponse normalizes a model response into a bare query string:
// code fences and surrounding whitespace are stripped and internal
// newlines collapsed. Models occasionally wrap the query despite the
// format instructions.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop an optional language tag on the fence line.
		if idx := strings.Index(s, "\n"); idx >= 0 && !strings.ContainsAny(s[:idx], "()[]\"") {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}

	return strings.Join(strings.Fields(s), " ")
}
