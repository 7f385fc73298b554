// Copyright Tales Pardini, 2026. All rights reserved.

package types

import "strings"

// Issue is a structured diagnosis tag explaining why a query's result
// set is unsatisfactory. Tags are ordered by the evaluator: count-range
// issues first, then study-mix issues. Control flow switches on these
// tags; the human-readable text exists only for display.
type Issue string

const (
	// IssueTooNarrow fires when a query returns fewer than 20 results.
	IssueTooNarrow Issue = "too_narrow"

	// IssueNarrow fires when a query returns fewer than 100 results.
	IssueNarrow Issue = "narrow"

	// IssueBroad fires when a query returns more than 500 results.
	IssueBroad Issue = "broad"

	// IssueVeryBroad fires when a query returns more than 1000 results.
	// It supersedes IssueBroad; the two never fire together.
	IssueVeryBroad Issue = "very_broad"

	// IssueLowPrimaryRatio fires when fewer than 20% of sampled titles
	// look like primary studies.
	IssueLowPrimaryRatio Issue = "low_primary_ratio"

	// IssueFewRelevant fires when both the review ratio (<10%) and the
	// primary-study ratio (<30%) are low.
	IssueFewRelevant Issue = "few_relevant"

	// IssueNone is the sentinel for a diagnosis that found nothing wrong.
	// It is distinct from an empty slice so "evaluated, clean" can be told
	// apart from "not evaluated", and it is what terminates refinement.
	IssueNone Issue = "none"
)

// issueText maps each tag to its display message.
var issueText = map[Issue]string{
	IssueTooNarrow:       "too narrow, very few results",
	IssueNarrow:          "moderately narrow, consider broadening",
	IssueBroad:           "too broad, consider narrowing",
	IssueVeryBroad:       "extremely broad, needs tightening",
	IssueLowPrimaryRatio: "low ratio of primary studies",
	IssueFewRelevant:     "few relevant studies found",
	IssueNone:            "no specific issues",
}

// String returns the human-readable message for the tag.
func (i Issue) String() string {
	if s, ok := issueText[i]; ok {
		return s
	}
	return string(i)
}

// Evaluation scores one SearchResult against the target criteria.
// All component scores lie in [0,1]; OverallScore is a fixed convex
// combination (0.5 count, 0.3 primary, 0.1 review, 0.1 relevance) and is
// therefore monotonically non-decreasing in each component.
type Evaluation struct {
	// TotalCount echoes the result's total hit count.
	TotalCount int `json:"total_count" yaml:"total_count"`

	// CountScore grades TotalCount against the ideal range [100,500].
	CountScore float64 `json:"count_score" yaml:"count_score"`

	// PrimaryStudiesRatio is the fraction of sampled titles matching a
	// primary-study indicator term.
	PrimaryStudiesRatio float64 `json:"primary_studies_ratio" yaml:"primary_studies_ratio"`

	// SystematicReviewsRatio is the fraction of sampled titles matching
	// a systematic-review indicator term.
	SystematicReviewsRatio float64 `json:"systematic_reviews_ratio" yaml:"systematic_reviews_ratio"`

	// AverageRelevance is a cheap proxy for semantic relevance derived
	// from the two ratios (0.7 primary + 0.3 review).
	AverageRelevance float64 `json:"average_relevance" yaml:"average_relevance"`

	// OverallScore is the weighted composite used for best-query tracking.
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`

	// Issues holds the ordered diagnosis tags. A clean evaluation holds
	// exactly [IssueNone]; the slice is never empty after evaluation.
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Has reports whether the evaluation carries the given tag.
func (e Evaluation) Has(issue Issue) bool {
	for _, i := range e.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Clean reports whether the diagnosis found no specific issues.
func (e Evaluation) Clean() bool {
	return len(e.Issues) == 1 && e.Issues[0] == IssueNone
}

// IssueSummary joins the issue messages into one display string.
func (e Evaluation) IssueSummary() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return strings.Join(msgs, "; ")
}

// Iteration records one step of a refinement run. Records are appended,
// never mutated, and returned to the caller as the audit trail.
type Iteration struct {
	// IterationNumber is 1-based and strictly increasing within a run.
	IterationNumber int `json:"iteration_number" yaml:"iteration_number"`

	// Query is the query string executed in this iteration.
	Query string `json:"query" yaml:"query"`

	// ResultCount is the total hit count the query produced.
	ResultCount int `json:"result_count" yaml:"result_count"`

	// Evaluation is the scoring of this iteration's result set.
	Evaluation Evaluation `json:"evaluation" yaml:"evaluation"`

	// RefinementReason explains why this step was taken.
	RefinementReason string `json:"refinement_reason" yaml:"refinement_reason"`

	// AbstractsSample holds the abstracts fetched to enrich this
	// iteration, when the fetch succeeded.
	AbstractsSample []Abstract `json:"abstracts_sample,omitempty" yaml:"abstracts_sample,omitempty"`
}

// RefineResult is the outcome of one refinement run: the best query seen
// across all iterations and the complete ordered history. This is the
// literal response contract a thin API layer serializes to JSON.
type RefineResult struct {
	// BestQuery is the query with the highest overall score seen during
	// the run; ties keep the earliest iteration's query.
	BestQuery string `json:"best_pubmed_query" yaml:"best_pubmed_query"`

	// Iterations is the full audit trail, oldest first. Its length never
	// exceeds the run's iteration budget.
	Iterations []Iteration `json:"iterations" yaml:"iterations"`
}
