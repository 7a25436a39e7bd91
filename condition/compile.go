// Package condition lowers filter expressions into backend query conditions
// and restores expressions from them.
package condition

import (
	"fmt"
	"regexp"
	"strconv"

	nt "chanfilter/entity"
	"chanfilter/catalog"
	"chanfilter/grammar"
)

// ContractError is the panic value when asked to compile an invalid
// expression. Callers must validate first.
type ContractError struct {
	Expression nt.Expression
	Problem    *grammar.Problem
}

func (ce *ContractError) Error() string {
	return fmt.Sprintf("compile called on invalid expression %q: %v", ce.Expression, ce.Problem)
}

var compareOps = map[string]nt.CompareOp{
	nt.SymEq:       nt.Eq,
	nt.SymNe:       nt.Ne,
	nt.SymGt:       nt.Gt,
	nt.SymGte:      nt.Gte,
	nt.SymLt:       nt.Lt,
	nt.SymLte:      nt.Lte,
	nt.SymContains: nt.Regex,
}

// Compiler converts between expressions and condition trees.
type Compiler struct {
	catalog   catalog.Catalog
	validator *grammar.Validator
}

// New creates a compiler.
func New(cat catalog.Catalog) *Compiler {
	return &Compiler{
		catalog:   cat,
		validator: grammar.NewValidator(cat),
	}
}

// Compile lowers a filter set into one condition.
// Per-expression roots are combined under a single And, elided when there is
// only one. Returns nil when every expression is empty.
// Panics with *ContractError if any expression is invalid.
func (cpl *Compiler) Compile(set nt.FilterSet) nt.Condition {

	var roots []nt.Condition
	for _, expr := range set {
		root := cpl.CompileExpression(expr)
		if root != nil {
			roots = append(roots, root)
		}
	}

	switch len(roots) {
	case 0:
		return nil
	case 1:
		return roots[0]
	}
	return nt.And{Children: roots}
}

// CompileExpression lowers one expression, nil if it is empty.
// "and" binds tighter than "or": runs of clauses joined by "and" are grouped
// first and the groups are then joined under Or.
// Panics with *ContractError if the expression is invalid.
func (cpl *Compiler) CompileExpression(expr nt.Expression) nt.Condition {

	if expr.Empty() {
		return nil
	}

	parsed, problem := cpl.validator.Parse(expr)
	if problem != nil {
		panic(&ContractError{Expression: expr, Problem: problem})
	}

	var groups []nt.Condition
	run := []nt.Condition{leaf(parsed.Clauses[0])}

	for i, conn := range parsed.Connectors {
		next := leaf(parsed.Clauses[i+1])
		if conn.Symbol == nt.SymAnd {
			run = append(run, next)
			continue
		}
		groups = append(groups, group(run))
		run = []nt.Condition{next}
	}
	groups = append(groups, group(run))

	if len(groups) == 1 {
		return groups[0]
	}
	return nt.Or{Children: groups}
}

func group(run []nt.Condition) nt.Condition {
	if len(run) == 1 {
		return run[0]
	}
	return nt.And{Children: run}
}

func leaf(clause grammar.Clause) nt.Condition {

	field := nt.FieldPath(clause.Channel.SystemName)

	switch clause.Op.Symbol {
	case nt.SymIsNull:
		return nt.NullCheck{Field: field, IsNull: true}
	case nt.SymIsNotNull:
		return nt.NullCheck{Field: field, IsNull: false}
	}

	op := compareOps[clause.Op.Symbol]
	return nt.ComparisonNode{
		Field: field,
		Op:    op,
		Value: coerce(clause.Channel.DataType, op, *clause.Value),
	}
}

// coerce converts a literal to the channel's declared type.
// Numeric channels take numbers, everything else matches as text.
func coerce(dt nt.DataType, op nt.CompareOp, lit nt.Literal) any {

	if op == nt.Regex {
		return regexp.QuoteMeta(lit.Raw)
	}
	if dt == nt.Scalar {
		num, _ := lit.Number()
		return num
	}
	return lit.Raw
}

// canonicalNumber formats a number the way Decompile writes it.
func canonicalNumber(num float64) string {
	return strconv.FormatFloat(num, 'g', -1, 64)
}
