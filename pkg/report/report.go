// Package report writes the run outputs: a YAML document of suggested
// indexes for the changelog-writer collaborator and a JSON run summary.
// DDL is never emitted; the collaborator owns statement generation.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/querylens/querylens-engine/pkg/llm"
	"github.com/querylens/querylens-engine/pkg/models"
)

// indexDocument is the on-disk shape of the suggestion export.
type indexDocument struct {
	GeneratedAt time.Time    `yaml:"generated_at"`
	SessionID   string       `yaml:"session_id"`
	Indexes     []indexEntry `yaml:"indexes"`
}

type indexEntry struct {
	Table       string   `yaml:"table"`
	Columns     []string `yaml:"columns"` // ordered, leading column first
	MultiColumn bool     `yaml:"multi_column"`
}

// WriteIndexes writes the consolidated suggestions to path. Single and
// multi-column suggestions keep their consolidator ordering.
func WriteIndexes(path, sessionID string, single, multi []models.IndexSuggestion) error {
	doc := indexDocument{
		GeneratedAt: time.Now().UTC(),
		SessionID:   sessionID,
		Indexes:     make([]indexEntry, 0, len(single)+len(multi)),
	}
	for _, s := range single {
		doc.Indexes = append(doc.Indexes, indexEntry{
			Table:   s.Table,
			Columns: s.Columns,
		})
	}
	for _, s := range multi {
		doc.Indexes = append(doc.Indexes, indexEntry{
			Table:       s.Table,
			Columns:     s.Columns,
			MultiColumn: true,
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal index report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index report: %w", err)
	}
	return nil
}

// Summary aggregates one run for operators and CI logs.
type Summary struct {
	SessionID      string             `json:"sessionId"`
	StartedAt      time.Time          `json:"startedAt"`
	FinishedAt     time.Time          `json:"finishedAt"`
	UnitsTotal     int                `json:"unitsTotal"`
	UnitsProcessed int                `json:"unitsProcessed"`
	UnitsSkipped   int                `json:"unitsSkipped"`
	UnitsFailed    int                `json:"unitsFailed"`
	IssueCount     int                `json:"issueCount"`
	BySeverity     map[string]int     `json:"bySeverity"`
	SingleIndexes  int                `json:"singleColumnIndexes"`
	MultiIndexes   int                `json:"multiColumnIndexes"`
	LLM            *llm.UsageSnapshot `json:"llm,omitempty"`
}

// CountIssue bumps the per-severity tally.
func (s *Summary) CountIssue(issue *models.OptimizationIssue) {
	if issue == nil {
		return
	}
	if s.BySeverity == nil {
		s.BySeverity = make(map[string]int)
	}
	s.IssueCount++
	s.BySeverity[string(issue.Severity)]++
}

// WriteSummary writes the summary as indented JSON.
func WriteSummary(path string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}
