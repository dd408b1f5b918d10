// Package services orchestrates an analysis run: loading units, walking
// statements, advising on predicate order, consolidating suggestions,
// and checkpointing progress.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/models"
	"github.com/querylens/querylens-engine/pkg/sqlast"
)

// ParsedMethod pairs a query method with its parsed statement. Statement
// is nil for derived methods, whose predicates come from the parameter
// bindings instead.
type ParsedMethod struct {
	Method    models.QueryMethod
	Statement sqlast.Statement
}

// Unit is one analysis target ready for the runner. LoadErr is set when
// the unit's payload could not be decoded; the runner logs and skips
// such units without marking them processed, so a later run with fixed
// input picks them up again.
type Unit struct {
	ID      string
	Path    string
	Methods []ParsedMethod
	LoadErr error
}

// UnitSource supplies the units of one run.
type UnitSource interface {
	Units(ctx context.Context) ([]Unit, error)
}

// unitsDocument is the JSON export produced by the source-model
// collaborator: unit identity and query methods, plus the serialized
// statement per method.
type unitsDocument struct {
	Units []unitWire `json:"units"`
}

type unitWire struct {
	ID      string       `json:"id"`
	Path    string       `json:"path,omitempty"`
	Methods []methodWire `json:"methods"`
}

type methodWire struct {
	models.QueryMethod
	Statement json.RawMessage `json:"statement,omitempty"`
}

// JSONUnitSource reads units from a collaborator-produced JSON file.
type JSONUnitSource struct {
	path   string
	logger *zap.Logger
}

// NewJSONUnitSource creates a source over the file at path.
func NewJSONUnitSource(path string, logger *zap.Logger) *JSONUnitSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONUnitSource{path: path, logger: logger.Named("units")}
}

// Units loads and decodes the whole file. A statement that fails to
// decode poisons only its own unit, via Unit.LoadErr.
func (s *JSONUnitSource) Units(ctx context.Context) ([]Unit, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read units file: %w", err)
	}

	var doc unitsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse units file %s: %w", s.path, err)
	}

	units := make([]Unit, 0, len(doc.Units))
	for _, uw := range doc.Units {
		unit := Unit{ID: uw.ID, Path: uw.Path}
		for _, mw := range uw.Methods {
			pm := ParsedMethod{Method: mw.QueryMethod}
			if len(mw.Statement) > 0 {
				stmt, err := sqlast.DecodeStatement(mw.Statement)
				if err != nil {
					unit.LoadErr = fmt.Errorf("method %s: %w", mw.ID, err)
					break
				}
				pm.Statement = stmt
			}
			unit.Methods = append(unit.Methods, pm)
		}
		units = append(units, unit)
	}

	s.logger.Info("Loaded analysis units",
		zap.String("path", s.path),
		zap.Int("units", len(units)))

	return units, nil
}
