package condition

import (
	"strings"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
)

var (
	// ErrNotExpressible is returned for trees that need parentheses, such as
	// an Or nested inside an And.
	ErrNotExpressible = errors.New("condition cannot be written as one expression")
	// ErrUnknownNode is returned for nodes the compiler never produces.
	ErrUnknownNode = errors.New("unsupported condition node")
)

var symbols = map[nt.CompareOp]string{
	nt.Eq:    nt.SymEq,
	nt.Ne:    nt.SymNe,
	nt.Gt:    nt.SymGt,
	nt.Gte:   nt.SymGte,
	nt.Lt:    nt.SymLt,
	nt.Lte:   nt.SymLte,
	nt.Regex: nt.SymContains,
}

// Decompile rebuilds a single expression from a condition produced by
// CompileExpression. A nil condition gives the empty expression.
func (cpl *Compiler) Decompile(node nt.Condition) (nt.Expression, error) {

	if node == nil {
		return nt.Expression{}, nil
	}

	or, ok := node.(nt.Or)
	if !ok {
		return cpl.conjunction(node)
	}

	expr := nt.Expression{}
	for i, child := range flatten(or) {
		if i > 0 {
			expr = append(expr, nt.Op(nt.SymOr))
		}
		part, err := cpl.conjunction(child)
		if err != nil {
			return nil, err
		}
		expr = append(expr, part...)
	}
	return expr, nil
}

// DecompileSet rebuilds a filter set from a condition produced by Compile.
// An outer And holding an Or is split into one expression per child,
// otherwise the whole tree becomes a single expression. Expression boundaries
// may differ from the original set; the meaning does not.
func (cpl *Compiler) DecompileSet(node nt.Condition) (nt.FilterSet, error) {

	and, ok := node.(nt.And)
	if !ok || !holdsOr(and) {
		expr, err := cpl.Decompile(node)
		if err != nil {
			return nil, err
		}
		return nt.FilterSet{expr}, nil
	}

	set := nt.FilterSet{}
	for _, child := range and.Children {
		expr, err := cpl.Decompile(child)
		if err != nil {
			return nil, err
		}
		set = append(set, expr)
	}
	return set.Pruned(), nil
}

func holdsOr(and nt.And) bool {
	for _, child := range and.Children {
		if _, ok := child.(nt.Or); ok {
			return true
		}
	}
	return false
}

// flatten lifts nested Or children into their parent.
func flatten(or nt.Or) (out []nt.Condition) {
	for _, child := range or.Children {
		if inner, ok := child.(nt.Or); ok {
			out = append(out, flatten(inner)...)
			continue
		}
		out = append(out, child)
	}
	return
}

// conjunction writes a leaf or an And of leaves joined by "and".
func (cpl *Compiler) conjunction(node nt.Condition) (expr nt.Expression, err error) {

	switch node := node.(type) {
	case nt.And:
		if len(node.Children) == 0 {
			return nil, errors.Wrap(ErrUnknownNode, "empty and")
		}
		for i, child := range node.Children {
			if i > 0 {
				expr = append(expr, nt.Op(nt.SymAnd))
			}
			var part nt.Expression
			part, err = cpl.conjunction(child)
			if err != nil {
				return
			}
			expr = append(expr, part...)
		}
		return

	case nt.Or:
		return nil, errors.Wrap(ErrNotExpressible, "or inside and")

	case nt.NullCheck:
		ch, err := cpl.channel(node.Field)
		if err != nil {
			return nil, err
		}
		if node.IsNull {
			return nt.Expression{ch, nt.Op(nt.SymIsNull)}, nil
		}
		return nt.Expression{ch, nt.Op(nt.SymIsNotNull)}, nil

	case nt.ComparisonNode:
		ch, err := cpl.channel(node.Field)
		if err != nil {
			return nil, err
		}
		symbol, ok := symbols[node.Op]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "comparison operator %q", node.Op)
		}
		lit, err := literal(node.Op, node.Value)
		if err != nil {
			return nil, err
		}
		return nt.Expression{ch, nt.Op(symbol), lit}, nil
	}

	return nil, errors.Wrapf(ErrUnknownNode, "%T", node)
}

func (cpl *Compiler) channel(field string) (nt.Channel, error) {

	name, ok := nt.ParseFieldPath(field)
	if !ok {
		return nt.Channel{}, errors.Wrapf(ErrUnknownNode, "field %q", field)
	}

	info, ok := cpl.catalog.Lookup(name)
	if !ok {
		return nt.Channel{SystemName: name, Label: name}, nil
	}
	return info.Token(), nil
}

func literal(op nt.CompareOp, value any) (nt.Literal, error) {

	switch value := value.(type) {
	case float64:
		raw := canonicalNumber(value)
		return nt.Literal{Raw: raw, Type: nt.NumberLiteral}, nil
	case bool:
		raw := "false"
		if value {
			raw = "true"
		}
		return nt.Literal{Raw: raw, Type: nt.BooleanLiteral}, nil
	case string:
		if op == nt.Regex {
			value = unquoteMeta(value)
		}
		return nt.Literal{Raw: value, Type: nt.InferType(value)}, nil
	}
	return nt.Literal{}, errors.Wrapf(ErrUnknownNode, "value of type %T", value)
}

// unquoteMeta reverses regexp.QuoteMeta.
func unquoteMeta(s string) string {

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// Canonical returns expr as Decompile would write it back: channel labels
// from the catalog and literals normalised to their compiled value.
// Tokens that do not fit the grammar are kept as they are.
func (cpl *Compiler) Canonical(expr nt.Expression) nt.Expression {

	out := make(nt.Expression, len(expr))
	for i, tok := range expr {
		out[i] = tok

		ch, ok := tok.(nt.Channel)
		if ok {
			if info, found := cpl.catalog.Lookup(ch.SystemName); found {
				out[i] = info.Token()
			}
			continue
		}

		lit, ok := tok.(nt.Literal)
		if !ok || i < 2 {
			continue
		}
		prev, ok := expr[i-2].(nt.Channel)
		if !ok {
			continue
		}
		info, _ := cpl.catalog.Lookup(prev.SystemName)
		if info.DataType == nt.Scalar {
			if num, ok := lit.Number(); ok {
				out[i] = nt.Literal{Raw: canonicalNumber(num), Type: nt.NumberLiteral}
			}
			continue
		}
		out[i] = nt.Literal{Raw: lit.Raw, Type: nt.InferType(lit.Raw)}
	}
	return out
}
