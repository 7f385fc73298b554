// Copyright Tales Pardini, 2026. All rights reserved.

// Package types defines shared data structures for the pubmed-agent:
// search results returned by the PubMed gateway, query evaluations, the
// refinement audit trail, and configuration.
package types

// SearchResult is the outcome of executing one query against PubMed.
// It is created fresh by each gateway call and never mutated afterwards.
type SearchResult struct {
	// Query is the exact string that was executed.
	Query string `json:"query" yaml:"query"`

	// TotalCount is the total number of matching records, which may be
	// zero. An empty result set is valid and is not an error.
	TotalCount int `json:"total_count" yaml:"total_count"`

	// IDs lists the returned record identifiers (PMIDs), capped by the
	// request's page size, so its length is independent of TotalCount.
	IDs []string `json:"ids" yaml:"ids"`

	// SampleTitles, SampleTypes, and SampleYears are parallel slices
	// describing a small inspected subset of IDs (typically 5 or fewer).
	// All three are nil when no sample metadata was fetched; nil means
	// "no sample", not "empty sample".
	SampleTitles []string `json:"sample_titles,omitempty" yaml:"sample_titles,omitempty"`
	SampleTypes  []string `json:"sample_types,omitempty" yaml:"sample_types,omitempty"`
	SampleYears  []string `json:"sample_years,omitempty" yaml:"sample_years,omitempty"`
}

// HasSample reports whether sample metadata was fetched for this result.
func (r SearchResult) HasSample() bool {
	return r.SampleTitles != nil
}

// ArticleSummary holds esummary metadata for one PubMed record.
type ArticleSummary struct {
	// PMID is the PubMed record identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// PublicationTypes lists the record's publication types
	// (e.g. "Randomized Controlled Trial", "Review").
	PublicationTypes []string `json:"publication_types" yaml:"publication_types"`

	// PublicationYear is the publication year as reported by PubMed,
	// or "Unknown" when the record carries no date.
	PublicationYear string `json:"publication_year" yaml:"publication_year"`
}

// Abstract holds an article abstract fetched via efetch, used to ground
// query rewrites on the vocabulary of the current result set.
type Abstract struct {
	PMID     string `json:"pmid" yaml:"pmid"`
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`
}
