package chanfilter

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
	"chanfilter/catalog"
	"chanfilter/condition"
	"chanfilter/grammar"
	"chanfilter/guard"
)

var (
	// ErrInvalidDraft is wrapped by DraftError.
	ErrInvalidDraft = errors.New("invalid draft expression")
	// ErrNoDraft is returned for a draft index out of range.
	ErrNoDraft = errors.New("no such draft expression")
)

// DraftError reports the first invalid draft found while applying.
type DraftError struct {
	Index   int
	Problem *grammar.Problem
}

func (de *DraftError) Error() string {
	return fmt.Sprintf("draft %d: %v", de.Index, de.Problem)
}

func (de *DraftError) Unwrap() []error {
	return []error{ErrInvalidDraft, de.Problem}
}

// Outcome is the result of an apply attempt.
type Outcome int

const (
	// Applied means the drafts replaced the applied set.
	Applied Outcome = iota
	// NeedsConfirmation means the guard held the drafts back; applying the
	// same drafts again will go through.
	NeedsConfirmation
	// Discarded means the drafts changed while the attempt was in flight.
	Discarded
)

func (oc Outcome) String() string {
	switch oc {
	case NeedsConfirmation:
		return "needs confirmation"
	case Discarded:
		return "discarded"
	default:
		return "applied"
	}
}

// Candidate is a prepared, not yet committed, filter set.
type Candidate struct {
	Set       nt.FilterSet
	Condition nt.Condition
	Key       string
}

// Session holds draft and applied filters for one user.
// Session is not safe for concurrent use; estimates may be fetched
// elsewhere and handed to Commit.
type Session struct {
	ID string

	catalog   catalog.Catalog
	lexer     *grammar.Lexer
	validator *grammar.Validator
	compiler  *condition.Compiler
	guard     *guard.Guard
	estimator guard.Estimator
	logger    nt.Logger

	drafts  nt.FilterSet
	applied nt.FilterSet
}

// Catalog returns the session's channel catalog.
func (sn *Session) Catalog() catalog.Catalog { return sn.catalog }

// Lexer returns a lexer over the session's catalog.
func (sn *Session) Lexer() *grammar.Lexer { return sn.lexer }

// Compiler returns a compiler over the session's catalog.
func (sn *Session) Compiler() *condition.Compiler { return sn.compiler }

// Guard returns the session's count guard.
func (sn *Session) Guard() *guard.Guard { return sn.guard }

// Drafts returns a copy of the draft expressions.
func (sn *Session) Drafts() nt.FilterSet {
	return sn.drafts.Clone()
}

// Applied returns a copy of the applied set.
// It always holds at least one, possibly empty, expression.
func (sn *Session) Applied() nt.FilterSet {
	return sn.applied.Clone()
}

// Draft returns a copy of one draft expression.
func (sn *Session) Draft(index int) (expr nt.Expression, err error) {

	err = sn.check(index)
	if err != nil {
		return
	}

	expr = sn.drafts[index].Clone()
	return
}

// AddDraft appends an empty draft and returns its index.
func (sn *Session) AddDraft() int {
	sn.drafts = append(sn.drafts, nt.Expression{})
	return len(sn.drafts) - 1
}

// RemoveDraft deletes a draft, keeping the others in order.
func (sn *Session) RemoveDraft(index int) (err error) {

	err = sn.check(index)
	if err != nil {
		return
	}

	sn.drafts = append(sn.drafts[:index:index], sn.drafts[index+1:]...)
	return
}

// UpdateDraft replaces a draft.
func (sn *Session) UpdateDraft(index int, expr nt.Expression) (err error) {

	err = sn.check(index)
	if err != nil {
		return
	}

	sn.drafts[index] = expr.Clone()
	return
}

// Validate checks one draft.
func (sn *Session) Validate(index int) (res grammar.Result, err error) {

	err = sn.check(index)
	if err != nil {
		return
	}

	res = sn.validator.Validate(sn.drafts[index])
	return
}

// Compiled returns the condition for the applied set, nil for no filter.
func (sn *Session) Compiled() nt.Condition {
	return sn.compiler.Compile(sn.applied)
}

// Prepare validates the drafts and compiles what would be applied.
// Empty drafts are dropped, leaving one empty expression if nothing remains.
func (sn *Session) Prepare() (cand Candidate, err error) {

	for i, expr := range sn.drafts {
		res := sn.validator.Validate(expr)
		if !res.Valid() {
			err = &DraftError{Index: i, Problem: res.Problem}
			return
		}
	}

	cand.Set = sn.drafts.Pruned()
	cand.Condition = sn.compiler.Compile(cand.Set)
	cand.Key = condition.Key(cand.Condition)
	return
}

// NeedsEstimate reports whether Commit will look at a count for cand.
func (sn *Session) NeedsEstimate(cand Candidate) bool {
	return sn.guard.NeedsEstimate(cand.Key)
}

// Estimate counts records for cand, unknown when there is no estimator.
func (sn *Session) Estimate(ctx context.Context, cand Candidate) (guard.Estimate, error) {
	return guard.Measure(ctx, sn.estimator, cand.Key, cand.Condition)
}

// Commit applies cand if it still matches the drafts and the guard agrees.
// An estimate that arrives after the drafts changed is discarded.
func (sn *Session) Commit(ctx context.Context, cand Candidate, est guard.Estimate) (outcome Outcome, err error) {

	current, err := sn.Prepare()
	if err != nil {
		var de *DraftError
		if errors.As(err, &de) {
			sn.logger.Info(ctx, "discarding apply, drafts now invalid", "session", sn.ID, "draft", de.Index)
			return Discarded, nil
		}
		return
	}

	if current.Key != cand.Key {
		sn.logger.Info(ctx, "discarding stale apply", "session", sn.ID, "stale", cand.Key, "current", current.Key)
		return Discarded, nil
	}

	verdict := sn.guard.Review(current.Key, est)
	if verdict == guard.NeedsConfirmation {
		sn.logger.Info(ctx, "apply needs confirmation",
			"session", sn.ID, "condition", current.Key, "estimate", est.Count, "threshold", sn.guard.Threshold())
		return NeedsConfirmation, nil
	}

	sn.applied = current.Set
	sn.logger.Info(ctx, "filters applied", "session", sn.ID, "condition", current.Key, "estimate", est.String())
	return Applied, nil
}

// Apply validates, estimates when the guard wants a count, and commits.
// A failed estimate is logged and treated as unknown.
func (sn *Session) Apply(ctx context.Context) (outcome Outcome, err error) {

	cand, err := sn.Prepare()
	if err != nil {
		return
	}

	est := guard.Estimate{Key: cand.Key}
	if sn.NeedsEstimate(cand) {
		est, err = sn.Estimate(ctx, cand)
		if err != nil {
			sn.logger.Error(ctx, "failed to estimate record count", err, "session", sn.ID)
			err = nil
		}
	}

	return sn.Commit(ctx, cand, est)
}

// Reset clears drafts and applied filters.
// Candidates already committed stay confirmed.
func (sn *Session) Reset() {
	sn.drafts = nt.FilterSet{{}}
	sn.applied = nt.FilterSet{{}}
}

// Restore repopulates drafts and the applied set from a compiled condition.
func (sn *Session) Restore(ctx context.Context, cond nt.Condition) (err error) {

	set, err := sn.compiler.DecompileSet(cond)
	if err != nil {
		err = errors.Wrapf(err, "failed to restore filters")
		return
	}

	err = sn.preload(set)
	if err != nil {
		return
	}

	sn.logger.Info(ctx, "filters restored", "session", sn.ID, "expressions", len(sn.applied))
	return
}

// preload applies set without consulting the guard, marking it seen.
func (sn *Session) preload(set nt.FilterSet) (err error) {

	for i, expr := range set {
		res := sn.validator.Validate(expr)
		if !res.Valid() {
			err = &DraftError{Index: i, Problem: res.Problem}
			return
		}
	}

	sn.drafts = set.Pruned()
	sn.applied = sn.drafts.Clone()
	sn.guard.Review(condition.Key(sn.Compiled()), guard.Estimate{})
	return
}

func (sn *Session) check(index int) error {
	if index < 0 || index >= len(sn.drafts) {
		return errors.Wrapf(ErrNoDraft, "index %d of %d", index, len(sn.drafts))
	}
	return nil
}
