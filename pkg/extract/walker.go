// Package extract decomposes parsed SQL statements into positionally
// ordered WHERE and JOIN-ON predicate streams. The walker recurses into
// nested subqueries and set-operation branches, resolves table aliases
// back to physical tables, and tags every discovered column reference
// with a cardinality verdict from the injected classifier.
package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/cardinality"
	"github.com/querylens/querylens-engine/pkg/models"
	"github.com/querylens/querylens-engine/pkg/sqlast"
)

// Result holds the two disjoint predicate streams of one extraction.
// WHERE and JOIN predicates are numbered independently because they are
// separate recommendation spaces.
type Result struct {
	Where []models.Predicate
	Joins []models.JoinPredicate
	// WhereHasOr reports whether any OR connective appeared in a visited
	// WHERE clause. The advisor never reorders across an OR boundary.
	WhereHasOr bool
}

// Walker extracts predicates from parsed statements. It is stateless
// across calls; position counters and alias scopes are per-extraction.
type Walker struct {
	classifier *cardinality.Classifier
	logger     *zap.Logger
}

// NewWalker creates a walker bound to a classifier.
func NewWalker(classifier *cardinality.Classifier, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		classifier: classifier,
		logger:     logger.Named("extract"),
	}
}

// Extract walks stmt and returns its predicate streams. defaultTable is
// the caller's fallback for unqualified columns when the statement's own
// FROM clause yields no table. A nil or unrecognized statement produces
// an empty result, never an error: malformed subtrees are skipped and
// logged, and one failed branch never aborts the extraction.
func (w *Walker) Extract(stmt sqlast.Statement, defaultTable string) Result {
	e := &extraction{
		walker:  w,
		aliases: make(map[string]string),
	}
	if stmt != nil {
		e.rawText = stmt.RawText()
		e.walkStatement(stmt, strings.ToLower(defaultTable))
	}

	return Result{
		Where:      e.where,
		Joins:      e.joins,
		WhereHasOr: e.hasOr,
	}
}

// extraction is the per-call state: independent WHERE/JOIN position
// counters and the alias scope accumulated while descending.
type extraction struct {
	walker  *Walker
	rawText string
	aliases map[string]string // folded alias -> physical table

	wherePos int
	joinPos  int
	hasOr    bool

	where []models.Predicate
	joins []models.JoinPredicate
}

func (e *extraction) walkStatement(stmt sqlast.Statement, defaultTable string) {
	switch s := stmt.(type) {
	case *sqlast.Select:
		e.walkSelect(s, defaultTable)
	case *sqlast.Update:
		table := e.resolveTargetTable(s.Table, s.Tables, s.From, defaultTable)
		e.extractWhere(s.Where, table)
	case *sqlast.Delete:
		table := e.resolveTargetTable(s.Table, s.Tables, s.From, defaultTable)
		e.extractWhere(s.Where, table)
	default:
		e.walker.logger.Debug("Skipping unrecognized statement type")
	}
}

func (e *extraction) walkSelect(s *sqlast.Select, defaultTable string) {
	if s == nil {
		return
	}

	e.registerAliases(s.From)
	for _, j := range s.Joins {
		e.registerAliases([]sqlast.FromItem{j.Target})
	}

	// The statement's own default table: first physical table of the
	// FROM clause, else the caller's fallback.
	own := firstTableName(s.From)
	if own == "" {
		own = defaultTable
	}

	// Recurse into derived tables before extracting this level, keeping
	// source order depth-first.
	for _, item := range s.From {
		if sub, ok := item.(sqlast.SubqueryRef); ok {
			e.walkSelect(sub.Select, own)
		}
	}

	e.extractWhere(s.Where, own)

	for _, j := range s.Joins {
		if sub, ok := j.Target.(sqlast.SubqueryRef); ok {
			e.walkSelect(sub.Select, own)
		}
		e.extractJoinOn(j.On, own)
	}

	for _, branch := range s.SetOps {
		e.walkSelect(branch.Select, defaultTable)
	}
}

// resolveTargetTable resolves the single target table of an UPDATE or
// DELETE, trying the singular table, the table list, and the generic
// FROM items in that order (parsers expose the target in any of the
// three shapes).
func (e *extraction) resolveTargetTable(table *sqlast.TableRef, tables []sqlast.TableRef, from []sqlast.FromItem, defaultTable string) string {
	if table != nil && table.Name != "" {
		e.registerTableRef(*table)
		return strings.ToLower(table.Name)
	}
	if len(tables) > 0 && tables[0].Name != "" {
		for _, t := range tables {
			e.registerTableRef(t)
		}
		return strings.ToLower(tables[0].Name)
	}
	e.registerAliases(from)
	if name := firstTableName(from); name != "" {
		return name
	}
	return defaultTable
}

func (e *extraction) registerAliases(items []sqlast.FromItem) {
	for _, item := range items {
		if t, ok := item.(sqlast.TableRef); ok {
			e.registerTableRef(t)
		}
	}
}

func (e *extraction) registerTableRef(t sqlast.TableRef) {
	if t.Alias != "" && t.Name != "" {
		e.aliases[strings.ToLower(t.Alias)] = strings.ToLower(t.Name)
	}
}

// resolveQualifier maps a column's table qualifier to a physical table.
// Order: empty qualifier -> default table; qualifier equal to the
// default -> default; structured alias map; a qualifier carrying a
// real-table signal (underscore) is taken literally; otherwise the raw
// statement text is scanned for a FROM/JOIN alias binding. Resolution
// failure falls back to the default table rather than leaving the
// predicate untethered.
func (e *extraction) resolveQualifier(qualifier, defaultTable string) string {
	if qualifier == "" {
		return defaultTable
	}

	folded := strings.ToLower(qualifier)
	if folded == defaultTable {
		return defaultTable
	}
	if table, ok := e.aliases[folded]; ok {
		return table
	}
	if strings.Contains(qualifier, "_") {
		return folded
	}
	if table := resolveAliasInText(e.rawText, qualifier); table != "" {
		return table
	}

	e.walker.logger.Debug("Alias resolution failed, using default table",
		zap.String("qualifier", qualifier),
		zap.String("default_table", defaultTable))
	return defaultTable
}

func firstTableName(items []sqlast.FromItem) string {
	for _, item := range items {
		if t, ok := item.(sqlast.TableRef); ok && t.Name != "" {
			return strings.ToLower(t.Name)
		}
	}
	return ""
}
