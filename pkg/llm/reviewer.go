package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/jsonutil"
)

const reviewSystemMessage = `You review SQL predicate-ordering recommendations.
For each method you receive the query, the current WHERE column order, and a
recommended order that puts more selective columns first. Judge whether the
recommendation is sound. Respond with a JSON array only, one element per
method: {"methodId": "...", "agrees": true|false, "note": "..."}.`

// ReviewItem is one reorder recommendation submitted for a second
// opinion.
type ReviewItem struct {
	MethodID         string   `json:"methodId"`
	Query            string   `json:"query"`
	CurrentOrder     []string `json:"currentOrder"`
	RecommendedOrder []string `json:"recommendedOrder"`
}

// Verdict is the model's judgement on one recommendation.
type Verdict struct {
	MethodID string `json:"methodId"`
	Agrees   bool   `json:"agrees"`
	Note     string `json:"note,omitempty"`
}

// UnmarshalJSON tolerates loosely-typed fields: models sometimes return
// agrees as a string and notes as numbers.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var w struct {
		MethodID json.RawMessage `json:"methodId"`
		Agrees   json.RawMessage `json:"agrees"`
		Note     json.RawMessage `json:"note"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v.MethodID = jsonutil.FlexibleStringValue(w.MethodID)
	v.Agrees = jsonutil.FlexibleBoolValue(w.Agrees)
	v.Note = jsonutil.FlexibleStringValue(w.Note)
	return nil
}

// Reviewer batches recommendations into prompts and collects verdicts.
// Any batch that fails is skipped: a missing second opinion never fails
// the analysis.
type Reviewer struct {
	client    ChatClient
	batchSize int
	usage     *UsageTotals
	logger    *zap.Logger
}

// NewReviewer creates a Reviewer. batchSize values below 1 are clamped
// to 1.
func NewReviewer(client ChatClient, batchSize int, logger *zap.Logger) *Reviewer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Reviewer{
		client:    client,
		batchSize: batchSize,
		usage:     &UsageTotals{},
		logger:    logger.Named("reviewer"),
	}
}

// Usage returns the token totals accumulated so far.
func (r *Reviewer) Usage() UsageSnapshot {
	return r.usage.Snapshot()
}

// Review submits items in batches and returns the verdicts that were
// obtained. The error is non-nil only when the context is done; batch
// failures are logged and absorbed.
func (r *Reviewer) Review(ctx context.Context, items []ReviewItem) ([]Verdict, error) {
	var verdicts []Verdict

	for start := 0; start < len(items); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return verdicts, err
		}

		end := start + r.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		batchVerdicts, err := r.reviewBatch(ctx, batch)
		if err != nil {
			r.logger.Warn("Second opinion batch failed, continuing without it",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		verdicts = append(verdicts, batchVerdicts...)
	}

	return verdicts, nil
}

func (r *Reviewer) reviewBatch(ctx context.Context, batch []ReviewItem) ([]Verdict, error) {
	prompt, err := buildReviewPrompt(batch)
	if err != nil {
		return nil, err
	}

	completion, err := r.client.Complete(ctx, reviewSystemMessage, prompt)
	if err != nil {
		return nil, err
	}
	r.usage.Record(completion)

	verdicts, err := ParseJSONResponse[[]Verdict](completion.Content)
	if err != nil {
		return nil, fmt.Errorf("parse verdicts: %w", err)
	}

	// Keep only verdicts for methods actually in the batch. Models
	// occasionally invent entries.
	known := make(map[string]bool, len(batch))
	for _, item := range batch {
		known[item.MethodID] = true
	}
	kept := verdicts[:0]
	for _, v := range verdicts {
		if known[v.MethodID] {
			kept = append(kept, v)
		} else {
			r.logger.Debug("Dropping verdict for unknown method",
				zap.String("method_id", v.MethodID))
		}
	}

	return kept, nil
}

func buildReviewPrompt(batch []ReviewItem) (string, error) {
	encoded, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode review batch: %w", err)
	}

	var b strings.Builder
	b.WriteString("Review the following reorder recommendations:\n\n")
	b.Write(encoded)
	return b.String(), nil
}
