// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

func TestQuestionFileText(t *testing.T) {
	qf := QuestionFile{
		Picott: PicottElements{
			Population:   "adults with sepsis",
			Intervention: "early lactate-guided resuscitation",
			Outcome:      "28-day mortality",
			StudyType:    "randomized controlled trial",
		},
		FreeText: "focus on emergency department presentations",
	}

	got := qf.Text()
	want := "Population: adults with sepsis\n" +
		"Intervention: early lactate-guided resuscitation\n" +
		"Outcome: 28-day mortality\n" +
		"Study type: randomized controlled trial\n" +
		"focus on emergency department presentations"
	assert.Equal(t, want, got)
	assert.False(t, qf.IsEmpty())
}

func TestQuestionFileIsEmpty(t *testing.T) {
	assert.True(t, QuestionFile{}.IsEmpty())
	assert.True(t, QuestionFile{FreeText: "   \n"}.IsEmpty())
	assert.False(t, QuestionFile{Picott: PicottElements{Population: "adults"}}.IsEmpty())
}

func TestReadQuestionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "question.yaml")
	content := `picott:
  population: adults with type 2 diabetes
  intervention: metformin
  comparison: sulfonylureas
free_text: prefer long-term outcomes
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	qf, err := ReadQuestionFile(path)
	require.NoError(t, err)
	assert.Equal(t, "adults with type 2 diabetes", qf.Picott.Population)
	assert.Equal(t, "metformin", qf.Picott.Intervention)
	assert.Equal(t, "sulfonylureas", qf.Picott.Comparison)
	assert.Equal(t, "prefer long-term outcomes", qf.FreeText)
}

func TestReadQuestionFile_Errors(t *testing.T) {
	_, err := ReadQuestionFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("picott: [not: a: map"), 0o644))
	_, err = ReadQuestionFile(badPath)
	require.Error(t, err)
}

func TestWriteRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	result := types.RefineResult{
		BestQuery: `("sepsis"[tiab]) AND ("lactate"[tiab])`,
		Iterations: []types.Iteration{
			{
				IterationNumber:  1,
				Query:            `("sepsis"[tiab])`,
				ResultCount:      1200,
				RefinementReason: "initial query derived from PICOTT text",
			},
			{
				IterationNumber: 2,
				Query:           `("sepsis"[tiab]) AND ("lactate"[tiab])`,
				ResultCount:     320,
			},
		},
	}

	cfg := types.RefineConfig{MaxIterations: 5, AbstractSample: 10}
	require.NoError(t, WriteRunFile(path, "Population: adults with sepsis", "rules", cfg, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rf RunFile
	require.NoError(t, yaml.Unmarshal(data, &rf))

	assert.Equal(t, "Population: adults with sepsis", rf.Question)
	assert.Equal(t, "rules", rf.Config.Rewriter)
	assert.Equal(t, 5, rf.Config.MaxIterations)
	assert.Equal(t, 10, rf.Config.AbstractSample)
	assert.Equal(t, result.BestQuery, rf.BestQuery)
	require.Len(t, rf.Iterations, 2)
	assert.Equal(t, 1200, rf.Iterations[0].ResultCount)
	assert.False(t, rf.Timestamp.IsZero())
}
