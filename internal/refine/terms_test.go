// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

func TestFrequentTerms(t *testing.T) {
	abstracts := []types.Abstract{
		{Abstract: "Sepsis patients with elevated lactate. Sepsis mortality increased."},
		{Abstract: "Lactate clearance in sepsis patients."},
	}

	// Only words seen more than once survive; most frequent first, ties
	// broken alphabetically.
	got := frequentTerms(abstracts, 10)
	assert.Equal(t, []string{"sepsis", "lactate", "patients"}, got)

	assert.Equal(t, []string{"sepsis", "lactate"}, frequentTerms(abstracts, 2))
}

func TestFrequentTerms_FiltersShortAndStopwords(t *testing.T) {
	abstracts := []types.Abstract{
		{Abstract: "the the the and and ice ice cap cap"},
	}
	// "the"/"and" are stopwords, "ice"/"cap" too short.
	assert.Empty(t, frequentTerms(abstracts, 10))
}

func TestFrequentTerms_NoAbstracts(t *testing.T) {
	assert.Empty(t, frequentTerms(nil, 10))
}

func TestSpecificTerms_MarkerPath(t *testing.T) {
	abstracts := []types.Abstract{
		{Abstract: "Treatment targeted specifically mitochondrial dysfunction in neurons."},
		{Abstract: "The effect appears exclusively postoperative in this cohort."},
	}

	got := specificTerms(abstracts, 3)
	assert.Equal(t, []string{"mitochondrial", "postoperative"}, got)
}

func TestSpecificTerms_FallbackPath(t *testing.T) {
	abstracts := []types.Abstract{
		{Abstract: "Lactate clearance predicts outcomes. Lactate matters."},
	}

	// No markers present: fall back to long words seen exactly once, in
	// encounter order. "lactate" occurs twice and is excluded.
	got := specificTerms(abstracts, 2)
	assert.Equal(t, []string{"clearance", "predicts"}, got)
}

func TestSpecificTerms_DedupAcrossAbstracts(t *testing.T) {
	abstracts := []types.Abstract{
		{Abstract: "seen specifically biomarker here"},
		{Abstract: "again specifically biomarker there"},
	}
	assert.Equal(t, []string{"biomarker"}, specificTerms(abstracts, 5))
}

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, world; (Test): done.")
	assert.Equal(t, []string{"hello", "world", "test", "done"}, got)
}
