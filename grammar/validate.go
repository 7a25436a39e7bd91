// Package grammar checks token sequences against the filter grammar.
//
// An expression is one or more clauses joined by "and" or "or":
//
//	clause  = channel ( unary | comparison literal )
//	expr    = clause { ( "and" | "or" ) clause }
//
// There is no parenthesization. An empty expression is valid.
package grammar

import (
	nt "chanfilter/entity"
	"chanfilter/catalog"
)

// Clause is the minimal complete unit within an expression.
type Clause struct {
	Channel nt.ChannelInfo
	Op      nt.Operator
	Value   *nt.Literal // nil for unary operators
}

// Parsed is an expression broken into clauses and the connectors between them.
// len(Connectors) is len(Clauses)-1 for a non-empty expression.
type Parsed struct {
	Clauses    []Clause
	Connectors []nt.Operator
}

// Validator checks expressions against a channel catalog.
type Validator struct {
	catalog catalog.Catalog
}

// NewValidator creates a validator.
func NewValidator(cat catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

// Validate checks an expression.
// Invalidity is reported in the result, never as an error.
func (vld *Validator) Validate(expr nt.Expression) Result {
	_, problem := vld.Parse(expr)
	return Result{Problem: problem}
}

// Parse breaks a valid expression into clauses.
// Checks run in a fixed order so that the reported position is stable:
// repeated connectors, then channel references, then structure and types.
func (vld *Validator) Parse(expr nt.Expression) (parsed Parsed, problem *Problem) {

	if len(expr) == 0 {
		return
	}

	problem = repeatedConnector(expr)
	if problem != nil {
		return
	}

	problem = vld.channels(expr)
	if problem != nil {
		return
	}

	return vld.clauses(expr)
}

func isConnector(tok nt.Token) bool {
	op, ok := tok.(nt.Operator)
	return ok && op.Kind == nt.Logical
}

func repeatedConnector(expr nt.Expression) *Problem {
	for i := 1; i < len(expr); i++ {
		if isConnector(expr[i-1]) && isConnector(expr[i]) {
			return newProblem(i, ErrStructure, "%q cannot follow %q", expr[i].Text(), expr[i-1].Text())
		}
	}
	return nil
}

func (vld *Validator) channels(expr nt.Expression) *Problem {
	for i, tok := range expr {
		ch, ok := tok.(nt.Channel)
		if !ok {
			continue
		}
		info, ok := vld.catalog.Lookup(ch.SystemName)
		if !ok {
			return newProblem(i, ErrUnknownChannel, "unknown channel %q", ch.SystemName)
		}
		if !info.Filterable {
			return newProblem(i, ErrNotFilterable, "%s cannot be filtered on", info.DisplayName())
		}
	}
	return nil
}

type state int

const (
	expectChannel state = iota
	expectOperator
	expectValue
	expectConnector
)

func (vld *Validator) clauses(expr nt.Expression) (parsed Parsed, problem *Problem) {

	var clause Clause
	st := expectChannel

	for i, tok := range expr {
		switch st {

		case expectChannel:
			ch, ok := tok.(nt.Channel)
			if !ok {
				return parsed, missingChannel(i, tok)
			}
			clause = Clause{}
			clause.Channel, _ = vld.catalog.Lookup(ch.SystemName)
			st = expectOperator

		case expectOperator:
			op, ok := tok.(nt.Operator)
			if !ok || op.Kind == nt.Logical {
				return parsed, newProblem(i, ErrStructure, "expected an operator after %s, found %q", clause.Channel.DisplayName(), tok.Text())
			}
			if op.Symbol == nt.SymContains && clause.Channel.DataType == nt.Scalar {
				return parsed, newProblem(i, ErrType, "%q needs a text channel, %s is numeric", op.Symbol, clause.Channel.DisplayName())
			}
			clause.Op = op
			if op.Kind == nt.UnaryPostfix {
				parsed.Clauses = append(parsed.Clauses, clause)
				st = expectConnector
				continue
			}
			st = expectValue

		case expectValue:
			lit, ok := tok.(nt.Literal)
			if !ok {
				return parsed, newProblem(i, ErrStructure, "expected a value after %q, found %q", clause.Op.Symbol, tok.Text())
			}
			if !compatible(clause.Channel.DataType, lit) {
				return parsed, newProblem(i, ErrType, "%s needs a number, %q is a %s", clause.Channel.DisplayName(), lit.Raw, lit.Type)
			}
			clause.Value = &lit
			parsed.Clauses = append(parsed.Clauses, clause)
			st = expectConnector

		case expectConnector:
			if !isConnector(tok) {
				return parsed, newProblem(i, ErrStructure, "expected \"and\" or \"or\", found %q", tok.Text())
			}
			parsed.Connectors = append(parsed.Connectors, tok.(nt.Operator))
			st = expectChannel
		}
	}

	last := len(expr) - 1
	switch st {
	case expectChannel:
		return parsed, newProblem(last, ErrStructure, "%q needs a clause after it", expr[last].Text())
	case expectOperator:
		return parsed, newProblem(last, ErrStructure, "%s needs an operator", expr[last].Text())
	case expectValue:
		return parsed, newProblem(last, ErrStructure, "%q needs a value", expr[last].Text())
	}

	return parsed, nil
}

func missingChannel(pos int, tok nt.Token) *Problem {

	switch tok := tok.(type) {
	case nt.Literal:
		return newProblem(pos, ErrStructure, "expected a channel, found value %q", tok.Raw)
	case nt.Operator:
		if tok.Kind == nt.Logical {
			return newProblem(pos, ErrStructure, "%q needs a clause before it", tok.Symbol)
		}
		return newProblem(pos, ErrStructure, "%q needs a channel before it", tok.Symbol)
	}
	return newProblem(pos, ErrStructure, "expected a channel, found %q", tok.Text())
}

// compatible is true when a literal may be compared with a channel's data.
// Only numeric channels are strict; everything else matches as a string.
func compatible(dt nt.DataType, lit nt.Literal) bool {
	if dt == nt.Scalar {
		_, ok := lit.Number()
		return ok
	}
	return true
}
