// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"context"
	"strings"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// primaryStudyFilterTerms form the conjunctive filter ANDed in when the
// sample shows too few primary studies.
var primaryStudyFilterTerms = []string{
	"trial", "randomized", "controlled", "cohort", "prospective", "retrospective",
}

// Per-mutation caps on mined terms: broadening may OR up to three terms
// into each group, narrowing ANDs at most three, and the relevance rule
// ANDs at most two.
const (
	broadenTermCap   = 3
	narrowTermCap    = 3
	relevanceTermCap = 2
)

// RuleRewriter mutates queries with a deterministic rule table keyed on
// the diagnosed issue tags. It serves as the fallback when no generative
// backend is configured and documents the grounding rules an LLM-backed
// rewriter is prompted with. A RuleRewriter never returns an error and
// never produces an empty query: when a rule has nothing usable to apply
// it returns the query unchanged, which the controller's no-progress
// guard turns into termination.
type RuleRewriter struct{}

// Name identifies the rewriter in logs and run files.
func (RuleRewriter) Name() string { return "rules" }

// Rewrite applies the first matching rule, in priority order: count
// problems first (they dominate the score), then study-mix problems.
func (RuleRewriter) Rewrite(_ context.Context, rc RewriteContext) (string, error) {
	ev := rc.Evaluation

	var rewritten string
	switch {
	case ev.Has(types.IssueTooNarrow) || ev.Has(types.IssueNarrow):
		rewritten = broaden(rc.Query, rc.Abstracts)
	case ev.Has(types.IssueVeryBroad):
		rewritten = narrow(rc.Query, rc.Abstracts, true)
	case ev.Has(types.IssueBroad):
		rewritten = narrow(rc.Query, rc.Abstracts, false)
	case ev.Has(types.IssueLowPrimaryRatio):
		rewritten = addPrimaryStudyFilter(rc.Query)
	case ev.Has(types.IssueFewRelevant):
		rewritten = addRelevanceTerms(rc.Query, rc.Abstracts)
	default:
		return rc.Query, nil
	}

	if strings.TrimSpace(rewritten) == "" {
		return rc.Query, nil
	}
	return rewritten, nil
}

// broaden relaxes a too-narrow query. With abstracts available it ORs
// frequently occurring sample vocabulary into the existing OR-groups so
// the query keeps its structure while matching more records. Without
// abstracts it relaxes field restrictions instead.
func broaden(query string, abstracts []types.Abstract) string {
	if len(abstracts) > 0 {
		terms := frequentTerms(abstracts, 10)
		if q, ok := parseQuery(query); ok && len(terms) > 0 {
			if q.orIntoGroups(terms, broadenTermCap) {
				return q.String()
			}
		}
	}

	relaxed := strings.ReplaceAll(query, "[MeSH Terms]", "[MeSH Terms:noexp]")
	relaxed = strings.ReplaceAll(relaxed, "[tiab]", "[All Fields]")
	return relaxed
}

// narrow tightens a too-broad query by ANDing in more specific terms.
// With abstracts available the terms are mined from the sample; without
// them the fallback restricts fields and, for extreme counts, requires
// randomized/controlled vocabulary.
func narrow(query string, abstracts []types.Abstract, extreme bool) string {
	if len(abstracts) > 0 {
		mined := specificTerms(abstracts, narrowTermCap)
		if len(mined) > 0 {
			group := make([]string, len(mined))
			for i, t := range mined {
				group[i] = quoteTiab(t)
			}
			if q, ok := parseQuery(query); ok {
				q.andGroup(group)
				return q.String()
			}
			return query + " AND (" + strings.Join(group, " OR ") + ")"
		}
	}

	if extreme {
		tightened := strings.ReplaceAll(query, "[All Fields]", "[tiab]")
		return tightened + ` AND ("randomized"[tiab] OR "controlled"[tiab])`
	}
	return query + ` AND "human"[Filter]`
}

// addPrimaryStudyFilter ANDs in a disjunction of primary-study-type
// terms to raise the share of original research in the results.
func addPrimaryStudyFilter(query string) string {
	group := make([]string, len(primaryStudyFilterTerms))
	for i, t := range primaryStudyFilterTerms {
		group[i] = quoteTiab(t)
	}
	if q, ok := parseQuery(query); ok {
		q.andGroup(group)
		return q.String()
	}
	return query + " AND (" + strings.Join(group, " OR ") + ")"
}

// addRelevanceTerms ANDs in vocabulary expected to pull the results
// toward the question: abstract-mined terms when available, otherwise
// outcome/effect-oriented terms (skipped for synthesis-focused queries,
// which already target outcome literature).
func addRelevanceTerms(query string, abstracts []types.Abstract) string {
	if len(abstracts) > 0 {
		mined := frequentTerms(abstracts, 10)
		lower := strings.ToLower(query)
		added := 0
		out := query
		for _, term := range mined {
			if added >= relevanceTermCap {
				break
			}
			if strings.Contains(lower, term) {
				continue
			}
			out += " AND " + quoteTiab(term)
			added++
		}
		if added > 0 {
			return out
		}
	}

	if !strings.Contains(strings.ToLower(query), "systematic") {
		return query + ` AND ("effect"[tiab] OR "outcome"[tiab])`
	}
	return query
}
