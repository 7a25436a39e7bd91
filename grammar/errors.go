package grammar

import (
	"fmt"

	"github.com/pkg/errors"
)

// Problem kinds.
var (
	ErrStructure      = errors.New("malformed expression")
	ErrType           = errors.New("type mismatch")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrNotFilterable  = errors.New("channel is not filterable")
)

// Problem locates the first defect in an expression.
type Problem struct {
	Pos    int    // index of the token nearest the defect
	Reason string // human-readable
	Err    error  // kind, for errors.Is
}

func (p *Problem) Error() string {
	return fmt.Sprintf("invalid token %d: %s", p.Pos, p.Reason)
}

func (p *Problem) Unwrap() error {
	return p.Err
}

func newProblem(pos int, kind error, format string, args ...any) *Problem {
	return &Problem{
		Pos:    pos,
		Reason: fmt.Sprintf(format, args...),
		Err:    kind,
	}
}

// Result is the outcome of validating an expression.
// The zero Result is valid.
type Result struct {
	Problem *Problem
}

// Valid is true when there is no problem.
func (res Result) Valid() bool {
	return res.Problem == nil
}

func (res Result) String() string {
	if res.Valid() {
		return "valid"
	}
	return res.Problem.Error()
}
