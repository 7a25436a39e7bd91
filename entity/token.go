package entity

import (
	"math"
	"strconv"
	"strings"
)

// SlotKind classifies a token for the grammar.
// Operand sorts before Operator.
type SlotKind int

const (
	OperandSlot SlotKind = iota
	OperatorSlot
)

func (sk SlotKind) String() string {
	if sk == OperandSlot {
		return "operand"
	}
	return "operator"
}

// Token is one element of a filter expression.
// Token is closed: Channel, Operator and Literal are the only implementations.
type Token interface {
	// Slot returns the grammar slot the token occupies.
	Slot() SlotKind
	// Text returns the token as shown to a user.
	Text() string

	tokenMarker()
}

// Channel references a channel from the catalog.
type Channel struct {
	SystemName string
	Label      string
}

func (ch Channel) Slot() SlotKind { return OperandSlot }

func (ch Channel) Text() string {
	if ch.Label == "" {
		return ch.SystemName
	}
	return ch.Label
}

func (Channel) tokenMarker() {}

// OpKind determines how an operator binds its neighbours.
type OpKind int

const (
	// Comparison takes a preceding channel and a trailing literal.
	Comparison OpKind = iota
	// UnaryPostfix takes a preceding channel only.
	UnaryPostfix
	// Logical joins two complete clauses.
	Logical
)

// Operator is a comparison, null check or logical connector.
type Operator struct {
	Symbol string
	Kind   OpKind
}

func (op Operator) Slot() SlotKind { return OperatorSlot }
func (op Operator) Text() string   { return op.Symbol }
func (Operator) tokenMarker()      {}

// Arity is the number of operands the operator consumes, counting a clause
// as one operand for logical connectors.
func (op Operator) Arity() int {
	if op.Kind == UnaryPostfix {
		return 1
	}
	return 2
}

// Operator symbols.
const (
	SymEq        = "="
	SymNe        = "!="
	SymGt        = ">"
	SymGte       = ">="
	SymLt        = "<"
	SymLte       = "<="
	SymContains  = "contains"
	SymIsNotNull = "is not null"
	SymIsNull    = "is null"
	SymAnd       = "and"
	SymOr        = "or"
)

// Operators lists every operator in suggestion order.
var Operators = []Operator{
	{Symbol: SymEq, Kind: Comparison},
	{Symbol: SymNe, Kind: Comparison},
	{Symbol: SymGt, Kind: Comparison},
	{Symbol: SymGte, Kind: Comparison},
	{Symbol: SymLt, Kind: Comparison},
	{Symbol: SymLte, Kind: Comparison},
	{Symbol: SymContains, Kind: Comparison},
	{Symbol: SymIsNotNull, Kind: UnaryPostfix},
	{Symbol: SymIsNull, Kind: UnaryPostfix},
	{Symbol: SymAnd, Kind: Logical},
	{Symbol: SymOr, Kind: Logical},
}

// LookupOperator finds an operator by symbol, ignoring case.
func LookupOperator(symbol string) (Operator, bool) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	for _, op := range Operators {
		if op.Symbol == symbol {
			return op, true
		}
	}
	return Operator{}, false
}

// Op returns the operator with the given symbol and panics if there is none.
func Op(symbol string) Operator {
	op, ok := LookupOperator(symbol)
	if !ok {
		panic("unknown operator: " + symbol)
	}
	return op
}

// LiteralType is the type inferred from a literal's text.
type LiteralType int

const (
	StringLiteral LiteralType = iota
	NumberLiteral
	BooleanLiteral
)

func (lt LiteralType) String() string {
	switch lt {
	case NumberLiteral:
		return "number"
	case BooleanLiteral:
		return "boolean"
	default:
		return "string"
	}
}

// Literal is a value entered by the user.
// Raw holds the value without any surrounding quotes.
type Literal struct {
	Raw  string
	Type LiteralType
}

func (lit Literal) Slot() SlotKind { return OperandSlot }

func (lit Literal) Text() string {
	if lit.Type == StringLiteral && lit.Raw != "" && InferType(lit.Raw) != StringLiteral {
		return "'" + lit.Raw + "'"
	}
	return lit.Raw
}

func (Literal) tokenMarker() {}

// NewLiteral infers a literal from user text.
// Quoted text is always a string.
func NewLiteral(text string) Literal {
	if unq, ok := unquote(text); ok {
		return Literal{Raw: unq, Type: StringLiteral}
	}
	return Literal{Raw: text, Type: InferType(text)}
}

// InferType infers the type of unquoted text.
// Only finite numbers are numeric; NaN and Inf are text.
func InferType(raw string) LiteralType {
	if _, ok := finite(raw); ok {
		return NumberLiteral
	}
	switch raw {
	case "true", "false":
		return BooleanLiteral
	}
	return StringLiteral
}

// Number returns the literal's numeric value.
func (lit Literal) Number() (float64, bool) {
	if lit.Type != NumberLiteral {
		return 0, false
	}
	return finite(lit.Raw)
}

func finite(raw string) (float64, bool) {
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

func unquote(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}
	first, last := text[0], text[len(text)-1]
	if (first == '\'' || first == '"') && first == last {
		return text[1 : len(text)-1], true
	}
	return "", false
}

// Equal reports whether two tokens are the same.
func Equal(a, b Token) bool {
	return a == b
}

// Expression is one self-contained boolean clause sequence.
type Expression []Token

// Empty is true for an expression with no tokens.
func (expr Expression) Empty() bool {
	return len(expr) == 0
}

// Clone returns a copy that shares no backing array with expr.
func (expr Expression) Clone() Expression {
	if expr == nil {
		return Expression{}
	}
	return append(Expression{}, expr...)
}

// Equal reports whether both expressions hold the same tokens in order.
func (expr Expression) Equal(other Expression) bool {
	if len(expr) != len(other) {
		return false
	}
	for i := range expr {
		if !Equal(expr[i], other[i]) {
			return false
		}
	}
	return true
}

func (expr Expression) String() string {
	parts := make([]string, len(expr))
	for i, tok := range expr {
		parts[i] = tok.Text()
	}
	return strings.Join(parts, " ")
}

// FilterSet is an ordered, conjunctive collection of expressions.
type FilterSet []Expression

// Clone deep copies the set.
func (set FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(set))
	for i, expr := range set {
		out[i] = expr.Clone()
	}
	return out
}

// Equal reports whether both sets hold equal expressions in order.
func (set FilterSet) Equal(other FilterSet) bool {
	if len(set) != len(other) {
		return false
	}
	for i := range set {
		if !set[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Pruned drops empty expressions, keeping a single empty one when nothing
// else remains.
func (set FilterSet) Pruned() FilterSet {
	out := FilterSet{}
	for _, expr := range set {
		if !expr.Empty() {
			out = append(out, expr.Clone())
		}
	}
	if len(out) == 0 {
		out = FilterSet{Expression{}}
	}
	return out
}
