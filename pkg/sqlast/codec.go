package sqlast

import (
	"encoding/json"
	"fmt"
)

// The wire format is a tagged union: every node carries a "node" field
// naming its variant. This is the serialized form the SQL-parsing
// collaborator emits and the fixture-backed unit source consumes.

type stmtWire struct {
	Node   string            `json:"node"`
	Text   string            `json:"text,omitempty"`
	Table  *tableWire        `json:"table,omitempty"`
	Tables []tableWire       `json:"tables,omitempty"`
	From   []json.RawMessage `json:"from,omitempty"`
	Joins  []joinWire        `json:"joins,omitempty"`
	Where  json.RawMessage   `json:"where,omitempty"`
	SetOps []setOpWire       `json:"setOps,omitempty"`
}

type tableWire struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

type fromWire struct {
	Node   string          `json:"node"`
	Name   string          `json:"name,omitempty"`
	Alias  string          `json:"alias,omitempty"`
	Select json.RawMessage `json:"select,omitempty"`
}

type joinWire struct {
	Kind   string          `json:"kind"`
	Target json.RawMessage `json:"target"`
	On     json.RawMessage `json:"on,omitempty"`
}

type setOpWire struct {
	Kind   string          `json:"kind"`
	Select json.RawMessage `json:"select"`
}

type exprWire struct {
	Node        string            `json:"node"`
	Table       string            `json:"table,omitempty"`
	Name        string            `json:"name,omitempty"`
	Index       int               `json:"index,omitempty"`
	Literal     string            `json:"literal,omitempty"`
	Placeholder *exprWire         `json:"placeholder,omitempty"`
	Op          string            `json:"op,omitempty"`
	Left        json.RawMessage   `json:"left,omitempty"`
	Right       json.RawMessage   `json:"right,omitempty"`
	Operand     json.RawMessage   `json:"operand,omitempty"`
	Low         json.RawMessage   `json:"low,omitempty"`
	High        json.RawMessage   `json:"high,omitempty"`
	Items       []json.RawMessage `json:"items,omitempty"`
	Negated     bool              `json:"negated,omitempty"`
}

// DecodeStatement parses one serialized statement.
func DecodeStatement(raw json.RawMessage) (Statement, error) {
	var w stmtWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode statement: %w", err)
	}

	switch w.Node {
	case "select":
		return decodeSelect(raw)
	case "update":
		target, tables, from, where, err := decodeWriteParts(&w)
		if err != nil {
			return nil, err
		}
		return &Update{Text: w.Text, Table: target, Tables: tables, From: from, Where: where}, nil
	case "delete":
		target, tables, from, where, err := decodeWriteParts(&w)
		if err != nil {
			return nil, err
		}
		return &Delete{Text: w.Text, Table: target, Tables: tables, From: from, Where: where}, nil
	case "":
		return nil, fmt.Errorf("statement missing node tag")
	default:
		return nil, fmt.Errorf("unknown statement node %q", w.Node)
	}
}

func decodeWriteParts(w *stmtWire) (*TableRef, []TableRef, []FromItem, Expr, error) {
	var target *TableRef
	if w.Table != nil {
		target = &TableRef{Name: w.Table.Name, Alias: w.Table.Alias}
	}

	var tables []TableRef
	for _, t := range w.Tables {
		tables = append(tables, TableRef{Name: t.Name, Alias: t.Alias})
	}

	from, err := decodeFromItems(w.From)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	where, err := decodeOptionalExpr(w.Where)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return target, tables, from, where, nil
}

func decodeSelect(raw json.RawMessage) (*Select, error) {
	var w stmtWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode select: %w", err)
	}
	if w.Node != "select" {
		return nil, fmt.Errorf("expected select node, got %q", w.Node)
	}

	from, err := decodeFromItems(w.From)
	if err != nil {
		return nil, err
	}

	var joins []Join
	for _, jw := range w.Joins {
		target, err := decodeFromItem(jw.Target)
		if err != nil {
			return nil, err
		}
		on, err := decodeOptionalExpr(jw.On)
		if err != nil {
			return nil, err
		}
		kind := JoinKind(jw.Kind)
		if kind == "" {
			kind = JoinInner
		}
		joins = append(joins, Join{Kind: kind, Target: target, On: on})
	}

	where, err := decodeOptionalExpr(w.Where)
	if err != nil {
		return nil, err
	}

	var setOps []SetOp
	for _, sw := range w.SetOps {
		branch, err := decodeSelect(sw.Select)
		if err != nil {
			return nil, err
		}
		setOps = append(setOps, SetOp{Kind: SetOpKind(sw.Kind), Select: branch})
	}

	return &Select{Text: w.Text, From: from, Joins: joins, Where: where, SetOps: setOps}, nil
}

func decodeFromItems(raws []json.RawMessage) ([]FromItem, error) {
	var items []FromItem
	for _, raw := range raws {
		item, err := decodeFromItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeFromItem(raw json.RawMessage) (FromItem, error) {
	var w fromWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode from item: %w", err)
	}

	switch w.Node {
	case "table":
		return TableRef{Name: w.Name, Alias: w.Alias}, nil
	case "subquery":
		sel, err := decodeSelect(w.Select)
		if err != nil {
			return nil, err
		}
		return SubqueryRef{Select: sel, Alias: w.Alias}, nil
	default:
		return nil, fmt.Errorf("unknown from node %q", w.Node)
	}
}

func decodeOptionalExpr(raw json.RawMessage) (Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return decodeExpr(raw)
}

func decodeExpr(raw json.RawMessage) (Expr, error) {
	var w exprWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode expr: %w", err)
	}

	switch w.Node {
	case "column":
		return &Column{Table: w.Table, Name: w.Name}, nil

	case "placeholder":
		return &Value{Placeholder: &Placeholder{Index: w.Index, Name: w.Name}}, nil

	case "value":
		v := &Value{Literal: w.Literal}
		if w.Placeholder != nil {
			v.Placeholder = &Placeholder{Index: w.Placeholder.Index, Name: w.Placeholder.Name}
		}
		return v, nil

	case "comparison":
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		op, err := parseCompareOp(w.Op)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: op, Left: left, Right: right}, nil

	case "between":
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		low, err := decodeExpr(w.Low)
		if err != nil {
			return nil, err
		}
		high, err := decodeExpr(w.High)
		if err != nil {
			return nil, err
		}
		return &Between{Operand: operand, Low: low, High: high, Negated: w.Negated}, nil

	case "in":
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		var items []Expr
		for _, itemRaw := range w.Items {
			item, err := decodeExpr(itemRaw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return &In{Operand: operand, Items: items, Negated: w.Negated}, nil

	case "isnull":
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		return &IsNull{Operand: operand, Negated: w.Negated}, nil

	case "like":
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		return &Like{Left: left, Right: right, Negated: w.Negated}, nil

	case "and", "or":
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		if w.Node == "and" {
			return &And{Left: left, Right: right}, nil
		}
		return &Or{Left: left, Right: right}, nil

	case "":
		return nil, fmt.Errorf("expression missing node tag")
	default:
		return nil, fmt.Errorf("unknown expression node %q", w.Node)
	}
}

func parseCompareOp(raw string) (CompareOp, error) {
	switch op := CompareOp(raw); op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return op, nil
	case "!=":
		return OpNe, nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", raw)
	}
}
