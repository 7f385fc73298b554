// Copyright Tales Pardini, 2026. All rights reserved.

// Package evaluate scores a PubMed result set against the target
// criteria for a well-formed clinical search: a hit count in the ideal
// range, a healthy share of primary studies, and enough synthesis work
// to suggest the topic is real. Everything here is a pure function of
// its input; the package holds no state and never errors.
package evaluate

import (
	"strings"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// Ideal inclusive range for the total hit count. Below it the query is
// too specific to support a review; above it the reader drowns.
const (
	idealCountMin = 100
	idealCountMax = 500
)

// primaryStudyTerms are title substrings indicating original research.
var primaryStudyTerms = []string{
	"randomized", "trial", "cohort", "case-control", "observational",
	"cross-sectional", "longitudinal", "prospective", "retrospective",
}

// systematicReviewTerms are title substrings indicating synthesis work.
var systematicReviewTerms = []string{
	"systematic review", "meta-analysis", "systematic literature review",
	"evidence synthesis", "umbrella review",
}

// Composite weights. They sum to 1.0, which keeps OverallScore in [0,1].
const (
	weightCount     = 0.5
	weightPrimary   = 0.3
	weightReview    = 0.1
	weightRelevance = 0.1
)

// Evaluate scores a search result. A zero-result input yields degenerate
// all-zero scores rather than an error.
func Evaluate(result types.SearchResult) types.Evaluation {
	countScore := CountScore(result.TotalCount)

	primaryHits := 0
	reviewHits := 0
	for _, title := range result.SampleTitles {
		lower := strings.ToLower(title)
		// A title may count toward both categories.
		if containsAny(lower, primaryStudyTerms) {
			primaryHits++
		}
		if containsAny(lower, systematicReviewTerms) {
			reviewHits++
		}
	}

	// Sample-size floor of 1 avoids division by zero when no sample
	// metadata was fetched.
	sampleSize := len(result.SampleTitles)
	if sampleSize == 0 {
		sampleSize = 1
	}
	primaryRatio := float64(primaryHits) / float64(sampleSize)
	reviewRatio := float64(reviewHits) / float64(sampleSize)

	relevance := 0.7*primaryRatio + 0.3*reviewRatio

	overall := weightCount*countScore +
		weightPrimary*primaryRatio +
		weightReview*reviewRatio +
		weightRelevance*relevance

	return types.Evaluation{
		TotalCount:             result.TotalCount,
		CountScore:             countScore,
		PrimaryStudiesRatio:    primaryRatio,
		SystematicReviewsRatio: reviewRatio,
		AverageRelevance:       relevance,
		OverallScore:           overall,
		Issues:                 identifyIssues(result.TotalCount, primaryRatio, reviewRatio),
	}
}

// CountScore grades the hit count against the ideal range: 1.0 inside
// [100,500], proportional below (0 hits scores 0.0), and inversely
// proportional above so runaway counts decay toward zero.
func CountScore(count int) float64 {
	switch {
	case count >= idealCountMin && count <= idealCountMax:
		return 1.0
	case count <= 0:
		return 0.0
	case count < idealCountMin:
		return float64(count) / float64(idealCountMin)
	default:
		return float64(idealCountMax) / float64(count)
	}
}

// identifyIssues diagnoses why the result set misses the targets. The
// returned slice is ordered (count issues first) and never empty: a
// clean diagnosis is the single IssueNone sentinel, which is what lets
// the refinement loop tell "nothing to fix" from "not yet evaluated".
func identifyIssues(count int, primaryRatio, reviewRatio float64) []types.Issue {
	var issues []types.Issue

	switch {
	case count < 20:
		issues = append(issues, types.IssueTooNarrow)
	case count < idealCountMin:
		issues = append(issues, types.IssueNarrow)
	case count > 1000:
		issues = append(issues, types.IssueVeryBroad)
	case count > idealCountMax:
		issues = append(issues, types.IssueBroad)
	}

	if primaryRatio < 0.2 {
		issues = append(issues, types.IssueLowPrimaryRatio)
	}
	if reviewRatio < 0.1 && primaryRatio < 0.3 {
		issues = append(issues, types.IssueFewRelevant)
	}

	if len(issues) == 0 {
		return []types.Issue{types.IssueNone}
	}
	return issues
}

// GoodEnough is the composite stopping predicate: the hit count sits in
// the ideal range AND primary studies make up at least 30% of the sample
// AND the overall score reaches 0.7. All three must hold; passing the
// count range or the score alone is not sufficient.
func GoodEnough(ev types.Evaluation) bool {
	countInRange := ev.TotalCount >= idealCountMin && ev.TotalCount <= idealCountMax
	return countInRange &&
		ev.PrimaryStudiesRatio >= 0.3 &&
		ev.OverallScore >= 0.7
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
