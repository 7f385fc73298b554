// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	q, ok := parseQuery(`("sepsis"[tiab] OR "septic shock"[tiab]) AND ("lactate"[tiab]) AND "human"[Filter]`)
	require.True(t, ok)
	require.Len(t, q.clauses, 3)

	assert.True(t, q.clauses[0].grouped())
	assert.Equal(t, []string{`"sepsis"[tiab]`, `"septic shock"[tiab]`}, q.clauses[0].terms)

	assert.True(t, q.clauses[1].grouped())
	assert.Equal(t, []string{`"lactate"[tiab]`}, q.clauses[1].terms)

	assert.False(t, q.clauses[2].grouped())
	assert.Equal(t, `"human"[Filter]`, q.clauses[2].raw)
}

func TestParseQuery_RoundTrip(t *testing.T) {
	queries := []string{
		`("sepsis"[tiab] OR "septic shock"[tiab]) AND ("lactate"[tiab] OR "lactic acid"[tiab])`,
		`"diabetes"[MeSH Terms] AND ("metformin"[tiab])`,
		`("a"[tiab])`,
	}
	for _, raw := range queries {
		q, ok := parseQuery(raw)
		require.True(t, ok, raw)
		assert.Equal(t, raw, q.String())
	}
}

func TestParseQuery_Unbalanced(t *testing.T) {
	for _, raw := range []string{
		`("sepsis"[tiab] AND "lactate"[tiab]`,
		`"sepsis AND lactate`,
		`)sepsis(`,
		``,
	} {
		_, ok := parseQuery(raw)
		assert.False(t, ok, raw)
	}
}

func TestSplitTopLevel_QuotedSeparator(t *testing.T) {
	// An AND inside quotes is literal text, not a clause boundary.
	parts, ok := splitTopLevel(`"alpha AND beta" AND gamma`, " AND ")
	require.True(t, ok)
	assert.Equal(t, []string{`"alpha AND beta"`, "gamma"}, parts)
}

func TestSplitTopLevel_NestedParens(t *testing.T) {
	parts, ok := splitTopLevel(`(a AND (b OR c)) AND d`, " AND ")
	require.True(t, ok)
	assert.Equal(t, []string{`(a AND (b OR c))`, "d"}, parts)
}

func TestOrIntoGroups(t *testing.T) {
	q, ok := parseQuery(`("sepsis"[tiab]) AND ("lactate"[tiab])`)
	require.True(t, ok)

	// "sepsis" already appears in the first group so only the new terms
	// land there; the cap limits each group to two additions.
	changed := q.orIntoGroups([]string{"sepsis", "infection", "bacteremia", "shock"}, 2)
	assert.True(t, changed)
	assert.Equal(t,
		`("sepsis"[tiab] OR "infection"[tiab] OR "bacteremia"[tiab]) AND ("lactate"[tiab] OR "sepsis"[tiab] OR "infection"[tiab])`,
		q.String())
}

func TestOrIntoGroups_NoGroups(t *testing.T) {
	q, ok := parseQuery(`"sepsis"[MeSH Terms] AND "human"[Filter]`)
	require.True(t, ok)

	changed := q.orIntoGroups([]string{"infection"}, 3)
	assert.False(t, changed)
	assert.Equal(t, `"sepsis"[MeSH Terms] AND "human"[Filter]`, q.String())
}

func TestAndGroup(t *testing.T) {
	q, ok := parseQuery(`("sepsis"[tiab])`)
	require.True(t, ok)

	q.andGroup([]string{`"mortality"[tiab]`, `"survival"[tiab]`})
	assert.Equal(t, `("sepsis"[tiab]) AND ("mortality"[tiab] OR "survival"[tiab])`, q.String())

	// Empty groups are ignored.
	q.andGroup(nil)
	assert.Equal(t, `("sepsis"[tiab]) AND ("mortality"[tiab] OR "survival"[tiab])`, q.String())
}

func TestContains(t *testing.T) {
	q, ok := parseQuery(`("Sepsis"[tiab]) AND "human"[Filter]`)
	require.True(t, ok)

	assert.True(t, q.contains("sepsis"))
	assert.True(t, q.contains("HUMAN"))
	assert.False(t, q.contains("lactate"))
}
