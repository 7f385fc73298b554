// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// QuestionFile is the on-disk representation of a clinical question. The
// researcher can spell out the PICOTT elements or supply free text; both
// feed the same initial-query generation.
type QuestionFile struct {
	Picott   PicottElements `yaml:"picott"`
	FreeText string         `yaml:"free_text,omitempty"`
}

// PicottElements are the structured parts of a PICOTT question.
type PicottElements struct {
	Population   string `yaml:"population,omitempty"`
	Intervention string `yaml:"intervention,omitempty"`
	Comparison   string `yaml:"comparison,omitempty"`
	Outcome      string `yaml:"outcome,omitempty"`
	StudyType    string `yaml:"study_type,omitempty"`
	Time         string `yaml:"time,omitempty"`
}

// Text flattens the question into the free-text form the query
// generator consumes. Structured elements take precedence; FreeText is
// appended as additional context.
func (f QuestionFile) Text() string {
	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+strings.TrimSpace(value))
		}
	}
	add("Population", f.Picott.Population)
	add("Intervention", f.Picott.Intervention)
	add("Comparison", f.Picott.Comparison)
	add("Outcome", f.Picott.Outcome)
	add("Study type", f.Picott.StudyType)
	add("Time", f.Picott.Time)
	if strings.TrimSpace(f.FreeText) != "" {
		lines = append(lines, strings.TrimSpace(f.FreeText))
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether the question contains no usable text.
func (f QuestionFile) IsEmpty() bool {
	return strings.TrimSpace(f.Text()) == ""
}

// ReadQuestionFile loads a YAML question file from disk.
func ReadQuestionFile(path string) (*QuestionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}
	var qf QuestionFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing question file: %w", err)
	}
	return &qf, nil
}

// RunFile is the on-disk record of one completed refinement run: the
// question, the settings that shaped the run, the best query, and the
// full iteration history. It is an export the user asks for, not a
// store the engine reads back.
type RunFile struct {
	Question   string            `yaml:"question"`
	Config     RunFileConfig     `yaml:"config"`
	BestQuery  string            `yaml:"best_pubmed_query"`
	Iterations []types.Iteration `yaml:"iterations"`
	Timestamp  time.Time         `yaml:"timestamp"`
}

// RunFileConfig echoes the settings that produced the run.
type RunFileConfig struct {
	MaxIterations  int    `yaml:"max_iterations"`
	AbstractSample int    `yaml:"abstract_sample"`
	Rewriter       string `yaml:"rewriter"`
}

// WriteRunFile saves a refinement run to a YAML file.
func WriteRunFile(path, question, rewriter string, cfg types.RefineConfig, result types.RefineResult) error {
	rf := RunFile{
		Question: question,
		Config: RunFileConfig{
			MaxIterations:  cfg.MaxIterations,
			AbstractSample: cfg.AbstractSample,
			Rewriter:       rewriter,
		},
		BestQuery:  result.BestQuery,
		Iterations: result.Iterations,
		Timestamp:  time.Now(),
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
