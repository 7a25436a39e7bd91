package entity

// CompareOp is a backend comparison operator.
type CompareOp string

const (
	Eq    CompareOp = "$eq"
	Ne    CompareOp = "$ne"
	Gt    CompareOp = "$gt"
	Gte   CompareOp = "$gte"
	Lt    CompareOp = "$lt"
	Lte   CompareOp = "$lte"
	Regex CompareOp = "$regex"
)

// Condition is a node of a compiled, backend-facing query tree.
// Condition is closed: ComparisonNode, NullCheck, And and Or are the only
// implementations.
type Condition interface {
	conditionMarker()
}

// ComparisonNode compares a field against a value.
type ComparisonNode struct {
	Field string
	Op    CompareOp
	Value any // float64, string or bool
}

// NullCheck tests a field for null.
type NullCheck struct {
	Field  string
	IsNull bool
}

// And is true when all children are.
type And struct {
	Children []Condition
}

// Or is true when any child is.
type Or struct {
	Children []Condition
}

func (ComparisonNode) conditionMarker() {}
func (NullCheck) conditionMarker()      {}
func (And) conditionMarker()            {}
func (Or) conditionMarker()             {}
