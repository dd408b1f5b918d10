// Package advisor turns extracted predicate facts into ordering
// recommendations, index-gap suggestions, and argument-position
// remappings. Advice is conservative: any OR connective in a WHERE
// clause disables reordering for that method, since OR changes
// evaluation semantics under reordering.
package advisor

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/cardinality"
	"github.com/querylens/querylens-engine/pkg/models"
)

// Advisor produces per-method optimization issues and index suggestions.
type Advisor struct {
	classifier *cardinality.Classifier
	logger     *zap.Logger
}

// New creates an advisor backed by a classifier for index-gap checks.
func New(classifier *cardinality.Classifier, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		classifier: classifier,
		logger:     logger.Named("advisor"),
	}
}

// Advise inspects a method's WHERE predicates and returns an issue when
// reordering is warranted, or nil. andOnly must be false when any OR
// appeared anywhere in the clause; such methods never receive advice.
// Issues are created at most once per method and are immutable.
func (a *Advisor) Advise(unitID, methodID string, preds []models.Predicate, andOnly bool) *models.OptimizationIssue {
	if len(preds) < 2 || !andOnly {
		return nil
	}

	recommended := SortByCardinality(preds)
	if sameOrder(preds, recommended) {
		return nil
	}

	current := columnNames(preds)
	proposed := columnNames(recommended)
	severity := assessSeverity(preds)

	a.logger.Debug("Predicate order disagrees with selectivity",
		zap.String("method", methodID),
		zap.Strings("current", current),
		zap.Strings("recommended", proposed),
		zap.String("severity", string(severity)))

	return &models.OptimizationIssue{
		UnitID:           unitID,
		MethodID:         methodID,
		CurrentOrder:     current,
		RecommendedOrder: proposed,
		Severity:         severity,
		Description: fmt.Sprintf(
			"WHERE predicates are ordered (%s) but column selectivity favors (%s); more selective predicates should lead",
			strings.Join(current, ", "), strings.Join(proposed, ", ")),
	}
}

// SortByCardinality returns a new slice sorted by cardinality descending
// (High first), ties broken by original position ascending. The sort is
// stable, so predicates of equal cardinality never swap; sorting an
// already-sorted list returns an identical order.
func SortByCardinality(preds []models.Predicate) []models.Predicate {
	out := make([]models.Predicate, len(preds))
	copy(out, preds)

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Cardinality.Compare(out[j].Cardinality); c != 0 {
			return c < 0
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// assessSeverity ranks the disagreement: High when a Low-cardinality
// predicate leads while a High one exists in the same clause, Medium
// when a Medium predicate leads ahead of a later High one, Low for any
// other order disagreement.
func assessSeverity(preds []models.Predicate) models.Severity {
	leading := preds[0].Cardinality

	hasHighLater := false
	for _, p := range preds[1:] {
		if p.Cardinality == models.CardinalityHigh {
			hasHighLater = true
			break
		}
	}

	switch {
	case leading == models.CardinalityLow && hasHighLater:
		return models.SeverityHigh
	case leading == models.CardinalityMedium && hasHighLater:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func sameOrder(a, b []models.Predicate) bool {
	for i := range a {
		if a[i].Position != b[i].Position {
			return false
		}
	}
	return true
}

func columnNames(preds []models.Predicate) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.Column
	}
	return out
}
