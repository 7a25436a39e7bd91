package duck

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
)

// ErrUnsupported is returned for conditions the records table cannot answer.
var ErrUnsupported = errors.New("unsupported condition")

var comparators = map[nt.CompareOp]string{
	nt.Eq:  "=",
	nt.Ne:  "IS DISTINCT FROM",
	nt.Gt:  ">",
	nt.Gte: ">=",
	nt.Lt:  "<",
	nt.Lte: "<=",
}

// whereClause converts a condition to a WHERE clause with bound args.
// A nil condition gives no clause.
func whereClause(cond nt.Condition) (where string, args []any, err error) {

	if cond == nil {
		return
	}

	expr, args, err := lower(cond)
	if err != nil {
		return
	}

	where = "WHERE " + expr
	return
}

// lower recursively builds a filter expression (without WHERE prefix)
func lower(cond nt.Condition) (expr string, args []any, err error) {

	switch cond := cond.(type) {
	case nt.And:
		return join(cond.Children, " AND ")

	case nt.Or:
		return join(cond.Children, " OR ")

	case nt.NullCheck:
		var col column
		col, err = resolve(cond.Field)
		if err != nil {
			return
		}
		if cond.IsNull {
			expr = col.text + " IS NULL"
			return
		}
		expr = col.text + " IS NOT NULL"
		return

	case nt.ComparisonNode:
		return compare(cond)
	}

	err = errors.Wrapf(ErrUnsupported, "%T", cond)
	return
}

func join(children []nt.Condition, sep string) (expr string, args []any, err error) {

	if len(children) == 0 {
		err = errors.Wrapf(ErrUnsupported, "connector with no children")
		return
	}

	clauses := make([]string, len(children))
	for i, child := range children {
		var childArgs []any
		clauses[i], childArgs, err = lower(child)
		if err != nil {
			return
		}
		args = append(args, childArgs...)
	}

	expr = "(" + strings.Join(clauses, sep) + ")"
	return
}

func compare(cond nt.ComparisonNode) (expr string, args []any, err error) {

	col, err := resolve(cond.Field)
	if err != nil {
		return
	}

	if cond.Op == nt.Regex {
		pattern, ok := cond.Value.(string)
		if !ok {
			err = errors.Wrapf(ErrUnsupported, "pattern of type %T", cond.Value)
			return
		}
		expr = fmt.Sprintf("regexp_matches(%s, ?)", col.text)
		args = []any{pattern}
		return
	}

	cmp, ok := comparators[cond.Op]
	if !ok {
		err = errors.Wrapf(ErrUnsupported, "operator %q", cond.Op)
		return
	}

	switch val := cond.Value.(type) {
	case float64:
		expr = fmt.Sprintf("%s %s ?", col.number, cmp)
		args = []any{val}
	case bool:
		expr = fmt.Sprintf("%s %s ?", col.text, cmp)
		args = []any{fmt.Sprintf("%t", val)}
	case string:
		if col.time != "" {
			expr = fmt.Sprintf("%s %s TRY_CAST(? AS TIMESTAMP)", col.time, cmp)
		} else {
			expr = fmt.Sprintf("%s %s ?", col.text, cmp)
		}
		args = []any{val}
	default:
		err = errors.Wrapf(ErrUnsupported, "value of type %T", cond.Value)
	}
	return
}

// column is a field path rendered for text, numeric and time comparison.
type column struct {
	text   string
	number string
	time   string
}

func resolve(field string) (col column, err error) {

	name, ok := nt.ParseFieldPath(field)
	if !ok {
		err = errors.Wrapf(ErrUnsupported, "field %q", field)
		return
	}

	switch name {
	case nt.TimestampField:
		col.time = `"timestamp"`
		col.text = `strftime("timestamp", '%Y-%m-%dT%H:%M:%S')`
		col.number = `epoch("timestamp")`
	case nt.ShotnumField:
		col.text = "CAST(shotnum AS VARCHAR)"
		col.number = "shotnum"
	case nt.ActiveAreaField, nt.ActiveExperimentField:
		col.text = name
		col.number = fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", name)
	default:
		col.text = fmt.Sprintf(`json_extract_string(channels, '$."%s".data')`, quote(name))
		col.number = fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", col.text)
	}
	return
}

func orderBy(sorts []nt.Sort) string {

	var terms []string
	for _, sort := range sorts {
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}

		if nt.IsMetadata(sort.Field) {
			terms = append(terms, fmt.Sprintf(`"%s" %s`, sort.Field, dir))
			continue
		}

		col, _ := resolve(nt.FieldPath(sort.Field))
		terms = append(terms,
			fmt.Sprintf("%s %s NULLS LAST", col.number, dir),
			fmt.Sprintf("%s %s NULLS LAST", col.text, dir),
		)
	}

	return strings.Join(append(terms, "id ASC"), ", ")
}
