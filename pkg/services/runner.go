package services

import (
	"context"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/advisor"
	"github.com/querylens/querylens-engine/pkg/apperrors"
	"github.com/querylens/querylens-engine/pkg/cardinality"
	"github.com/querylens/querylens-engine/pkg/checkpoint"
	"github.com/querylens/querylens-engine/pkg/consolidate"
	"github.com/querylens/querylens-engine/pkg/extract"
	"github.com/querylens/querylens-engine/pkg/llm"
	"github.com/querylens/querylens-engine/pkg/logging"
	"github.com/querylens/querylens-engine/pkg/models"
	"github.com/querylens/querylens-engine/pkg/report"
)

// MethodFinding is the analysis outcome for one method that produced an
// issue.
type MethodFinding struct {
	UnitID   string
	MethodID string
	Issue    *models.OptimizationIssue

	// PositionMapping maps new argument positions to old ones for the
	// source-rewriting collaborator. Built for derived methods only,
	// whose argument order follows the predicate order. Nil when the
	// mapping could not be built, in which case arguments must not be
	// touched.
	PositionMapping map[int]int

	// ProposedName is a rename for derived methods whose name encodes
	// the predicate order. Empty when no rename applies.
	ProposedName string

	// RewrittenWhere is the WHERE body of a custom query text with its
	// top-level AND fragments reordered to the recommended column
	// order. Empty when the text could not be rewritten safely.
	RewrittenWhere string

	// SecondOpinion is the reviewer's verdict, when one was obtained.
	SecondOpinion *llm.Verdict

	// rawQuery is the sanitized query text sent to the reviewer.
	rawQuery string
}

// RunResult is what one complete run hands to reporting.
type RunResult struct {
	Findings      []MethodFinding
	SingleIndexes []models.IndexSuggestion
	MultiIndexes  []models.IndexSuggestion
	Summary       *report.Summary
}

// AnalysisRunner drives one run: units in, findings and suggestions out.
// Progress is checkpointed after every unit so an interrupted run resumes
// where it stopped.
type AnalysisRunner struct {
	source       UnitSource
	classifier   *cardinality.Classifier
	walker       *extract.Walker
	advisor      *advisor.Advisor
	consolidator *consolidate.Consolidator
	checkpoint   *checkpoint.Manager
	reviewer     *llm.Reviewer // nil when the second opinion is disabled
	logger       *zap.Logger
}

// NewAnalysisRunner wires a runner. reviewer may be nil.
func NewAnalysisRunner(
	source UnitSource,
	classifier *cardinality.Classifier,
	cp *checkpoint.Manager,
	reviewer *llm.Reviewer,
	logger *zap.Logger,
) *AnalysisRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisRunner{
		source:       source,
		classifier:   classifier,
		walker:       extract.NewWalker(classifier, logger),
		advisor:      advisor.New(classifier, logger),
		consolidator: consolidate.New(),
		checkpoint:   cp,
		reviewer:     reviewer,
		logger:       logger.Named("runner"),
	}
}

// Run processes every unit. The checkpoint is cleared only when no unit
// failed; otherwise it is left on disk for the next attempt.
func (r *AnalysisRunner) Run(ctx context.Context) (*RunResult, error) {
	if r.checkpoint.Load() {
		r.logger.Info("Resuming from checkpoint",
			zap.String("session_id", r.checkpoint.SessionID()))
		r.seedFromCheckpoint()
	}

	units, err := r.source.Units(ctx)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, apperrors.ErrNoUnits
	}

	summary := &report.Summary{
		SessionID:  r.checkpoint.SessionID(),
		StartedAt:  time.Now().UTC(),
		UnitsTotal: len(units),
	}

	var findings []MethodFinding
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.checkpoint.IsProcessed(unit.ID) {
			summary.UnitsSkipped++
			r.logger.Debug("Skipping processed unit", zap.String("unit_id", unit.ID))
			continue
		}

		if unit.LoadErr != nil {
			summary.UnitsFailed++
			r.logger.Warn("Skipping unit that failed to load",
				zap.String("unit_id", unit.ID),
				zap.Error(unit.LoadErr))
			continue
		}

		unitFindings := r.analyzeUnit(unit, summary)
		findings = append(findings, unitFindings...)

		r.checkpoint.MarkProcessed(unit.ID)
		if len(unitFindings) > 0 && unit.Path != "" {
			r.checkpoint.MarkModified(unit.Path)
		}
		single, multi := r.consolidator.Finalize()
		r.checkpoint.AddSuggestions(single, multi)
		if err := r.checkpoint.Save(); err != nil {
			r.logger.Error("Failed to save checkpoint", zap.Error(err))
		}
		summary.UnitsProcessed++
	}

	if r.reviewer != nil {
		r.attachSecondOpinions(ctx, findings)
		usage := r.reviewer.Usage()
		summary.LLM = &usage
	}

	result := &RunResult{Findings: findings, Summary: summary}
	singleKeys, multiKeys := r.consolidator.Finalize()
	result.SingleIndexes = parseSuggestionKeys(singleKeys, false)
	result.MultiIndexes = parseSuggestionKeys(multiKeys, true)
	summary.SingleIndexes = len(result.SingleIndexes)
	summary.MultiIndexes = len(result.MultiIndexes)
	summary.FinishedAt = time.Now().UTC()

	if summary.UnitsFailed == 0 {
		if err := r.checkpoint.Clear(); err != nil {
			r.logger.Error("Failed to clear checkpoint", zap.Error(err))
		}
	} else {
		r.logger.Warn("Run finished with failed units, keeping checkpoint",
			zap.Int("failed", summary.UnitsFailed))
	}

	return result, nil
}

// seedFromCheckpoint replays persisted suggestion keys into the
// consolidator so the final report covers units processed before the
// interruption.
func (r *AnalysisRunner) seedFromCheckpoint() {
	single, multi := r.checkpoint.Suggestions()
	for _, key := range single {
		if s, ok := models.ParseSuggestionKey(key, false); ok {
			r.consolidator.Add(s)
		}
	}
	for _, key := range multi {
		if s, ok := models.ParseSuggestionKey(key, true); ok {
			r.consolidator.Add(s)
		}
	}
}

func (r *AnalysisRunner) analyzeUnit(unit Unit, summary *report.Summary) []MethodFinding {
	var findings []MethodFinding

	for _, pm := range unit.Methods {
		method := pm.Method
		table := r.tableForMethod(unit, method)

		var (
			preds []models.Predicate
			hasOr bool
		)
		switch {
		case method.Derived:
			preds = r.derivedPredicates(table, method)
		case pm.Statement != nil:
			res := r.walker.Extract(pm.Statement, table)
			preds = res.Where
			hasOr = res.WhereHasOr
		default:
			r.logger.Debug("Method has neither statement nor derived bindings",
				zap.String("unit_id", unit.ID),
				zap.String("method_id", method.ID))
			continue
		}

		r.consolidator.AddAll(r.advisor.SuggestIndexes(preds))

		issue := r.advisor.Advise(unit.ID, method.ID, preds, !hasOr)
		if issue == nil {
			continue
		}
		summary.CountIssue(issue)

		finding := MethodFinding{
			UnitID:   unit.ID,
			MethodID: method.ID,
			Issue:    issue,
			rawQuery: logging.SanitizeQuery(method.RawQuery),
		}
		if method.Derived {
			if mapping, ok := advisor.BuildPositionMapping(
				issue.CurrentOrder, issue.RecommendedOrder, len(method.Parameters)); ok {
				finding.PositionMapping = mapping
			}
		} else if method.RawQuery != "" {
			if body, ok := advisor.WhereBody(method.RawQuery); ok {
				if rewritten, ok := r.advisor.ReorderWhereText(body, issue.RecommendedOrder); ok {
					finding.RewrittenWhere = rewritten
				}
			}
		}
		if name, ok := advisor.ProposeMethodName(
			method.Name, issue.CurrentOrder, issue.RecommendedOrder); ok {
			finding.ProposedName = name
		}

		r.logger.Info("Sub-optimal predicate order",
			zap.String("unit_id", unit.ID),
			zap.String("method", method.Name),
			zap.String("severity", string(issue.Severity)),
			zap.Strings("current", issue.CurrentOrder),
			zap.Strings("recommended", issue.RecommendedOrder))

		findings = append(findings, finding)
	}

	return findings
}

// derivedPredicates synthesizes one equality predicate per bound
// parameter, in signature order, for methods whose query is inferred
// from the name.
func (r *AnalysisRunner) derivedPredicates(table string, method models.QueryMethod) []models.Predicate {
	var preds []models.Predicate
	pos := 0
	for i := range method.Parameters {
		p := method.Parameters[i]
		if p.BoundColumn == "" {
			continue
		}
		ref := p.Ref
		u := models.UnclassifiedPredicate{
			Table:    table,
			Column:   p.BoundColumn,
			Operator: "=",
			Position: pos,
			Param:    &ref,
		}
		preds = append(preds, u.Classified(r.classifier.Classify(table, p.BoundColumn)))
		pos++
	}
	return preds
}

// tableForMethod prefers the collaborator-declared primary table and
// falls back to inferring one from the unit name, e.g. OrderRepository
// to orders.
func (r *AnalysisRunner) tableForMethod(unit Unit, method models.QueryMethod) string {
	if method.PrimaryTable != "" {
		return method.PrimaryTable
	}
	return tableForUnit(unit.ID)
}

func tableForUnit(unitID string) string {
	name := unitID
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	for _, suffix := range []string{"Repository", "Repo", "Dao", "Store"} {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	if name == "" {
		return ""
	}
	return inflection.Plural(extract.CamelToSnake(name))
}

func parseSuggestionKeys(keys []string, multi bool) []models.IndexSuggestion {
	var out []models.IndexSuggestion
	for _, key := range keys {
		if s, ok := models.ParseSuggestionKey(key, multi); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *AnalysisRunner) attachSecondOpinions(ctx context.Context, findings []MethodFinding) {
	byMethod := make(map[string]*MethodFinding, len(findings))
	items := make([]llm.ReviewItem, 0, len(findings))
	for i := range findings {
		f := &findings[i]
		byMethod[f.MethodID] = f
		items = append(items, llm.ReviewItem{
			MethodID:         f.MethodID,
			Query:            f.rawQuery,
			CurrentOrder:     f.Issue.CurrentOrder,
			RecommendedOrder: f.Issue.RecommendedOrder,
		})
	}
	if len(items) == 0 {
		return
	}

	verdicts, err := r.reviewer.Review(ctx, items)
	if err != nil {
		r.logger.Warn("Second opinion pass interrupted", zap.Error(err))
	}
	for i := range verdicts {
		v := verdicts[i]
		if f, ok := byMethod[v.MethodID]; ok {
			f.SecondOpinion = &v
		}
	}
}
