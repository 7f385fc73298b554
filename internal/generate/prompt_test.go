// Copyright Tales Pardini, 2026. All rights reserved.

package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare query",
			in:   `"sepsis"[tiab] AND "lactate"[tiab]`,
			want: `"sepsis"[tiab] AND "lactate"[tiab]`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n \"sepsis\"[tiab] \n ",
			want: `"sepsis"[tiab]`,
		},
		{
			name: "plain code fence",
			in:   "```\n\"sepsis\"[tiab]\n```",
			want: `"sepsis"[tiab]`,
		},
		{
			name: "fence with language tag",
			in:   "```text\n\"sepsis\"[tiab]\n```",
			want: `"sepsis"[tiab]`,
		},
		{
			name: "fence with query on the fence line",
			in:   "```(\"sepsis\"[tiab])\n```",
			want: `("sepsis"[tiab])`,
		},
		{
			name: "internal newlines collapsed",
			in:   "(\"sepsis\"[tiab]\nOR \"septic shock\"[tiab])",
			want: `("sepsis"[tiab] OR "septic shock"[tiab])`,
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanResponse(tt.in))
		})
	}
}

func TestRenderInitialPrompt(t *testing.T) {
	prompt, err := renderInitialPrompt("Population: adults\nIntervention: metformin")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Population: adults")
	assert.Contains(t, prompt, "Intervention: metformin")
	assert.Contains(t, prompt, "[tiab]")
	assert.Contains(t, prompt, "Do NOT use MeSH terms")
}

func TestRenderRefinePrompt(t *testing.T) {
	ev := types.Evaluation{
		TotalCount:             1500,
		PrimaryStudiesRatio:    0.1,
		SystematicReviewsRatio: 0.0,
		AverageRelevance:       0.07,
		Issues:                 []types.Issue{types.IssueVeryBroad, types.IssueLowPrimaryRatio},
	}
	abstracts := []types.Abstract{
		{Title: "Trial of X", Abstract: "We randomized patients."},
	}

	prompt, err := renderRefinePrompt(`"sepsis"[All Fields]`, ev, abstracts)
	require.NoError(t, err)

	assert.Contains(t, prompt, `"sepsis"[All Fields]`)
	assert.Contains(t, prompt, "Total results: 1500")
	assert.Contains(t, prompt, "Primary studies ratio: 0.10")
	assert.Contains(t, prompt, ev.IssueSummary())
	assert.Contains(t, prompt, "Trial of X: We randomized patients.")
}

func TestRenderRefinePrompt_OmitsAbstractSectionWhenEmpty(t *testing.T) {
	prompt, err := renderRefinePrompt("q", types.Evaluation{Issues: []types.Issue{types.IssueNone}}, nil)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "SAMPLED ABSTRACTS")
}

func TestRenderRefinePrompt_TruncatesAbstracts(t *testing.T) {
	long := strings.Repeat("x", maxAbstractChars+200)
	abstracts := make([]types.Abstract, maxPromptAbstracts+5)
	for i := range abstracts {
		abstracts[i] = types.Abstract{Title: "T", Abstract: long}
	}

	prompt, err := renderRefinePrompt("q", types.Evaluation{Issues: []types.Issue{types.IssueBroad}}, abstracts)
	require.NoError(t, err)

	assert.Equal(t, maxPromptAbstracts, strings.Count(prompt, "- T: "))
	assert.Contains(t, prompt, strings.Repeat("x", maxAbstractChars)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", maxAbstractChars+1))
}
