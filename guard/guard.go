// Package guard holds back filter changes expected to return too many records
// until the user confirms them.
package guard

// NoWarning is the threshold that turns the guard off.
const NoWarning = -1

// Verdict is the outcome of reviewing a candidate.
type Verdict int

const (
	// Proceed means the candidate may be committed.
	Proceed Verdict = iota
	// NeedsConfirmation means the candidate was held back and an identical
	// follow-up attempt will proceed.
	NeedsConfirmation
)

func (vd Verdict) String() string {
	if vd == NeedsConfirmation {
		return "needs confirmation"
	}
	return "proceed"
}

// Estimate is a record count for the candidate identified by Key.
// Known is false when no count could be had.
type Estimate struct {
	Key   string
	Count int
	Known bool
}

// Guard tracks which candidates have been committed in a session and
// which one is awaiting confirmation.
// Guard is not safe for concurrent use.
type Guard struct {
	threshold int
	seen      map[string]bool
	warned    string
	pending   bool
}

// New creates a guard warning above threshold; NoWarning or any negative
// threshold disables it.
func New(threshold int) *Guard {

	if threshold < 0 {
		threshold = NoWarning
	}

	return &Guard{
		threshold: threshold,
		seen:      map[string]bool{},
	}
}

// Active is true when a threshold is configured.
func (gd *Guard) Active() bool {
	return gd.threshold != NoWarning
}

// Threshold returns the configured warning threshold.
func (gd *Guard) Threshold() int {
	return gd.threshold
}

// Seen reports whether key was committed before.
func (gd *Guard) Seen(key string) bool {
	return gd.seen[key]
}

// NeedsEstimate reports whether Review will look at a count for key.
func (gd *Guard) NeedsEstimate(key string) bool {
	return gd.Active() && !gd.seen[key] && !gd.awaiting(key)
}

// Pending returns the key awaiting confirmation, if any.
func (gd *Guard) Pending() (key string, ok bool) {
	return gd.warned, gd.pending
}

// Review decides whether the candidate identified by key may be committed.
// A candidate is held back once when its estimate is over the threshold and
// it has not been committed before; the next identical attempt confirms it.
// Trying a different candidate drops any pending confirmation.
// An estimate for some other key, or no estimate at all, never holds back.
func (gd *Guard) Review(key string, est Estimate) Verdict {

	if !gd.Active() || gd.seen[key] || gd.awaiting(key) {
		gd.commit(key)
		return Proceed
	}

	if est.Known && est.Key == key && est.Count > gd.threshold {
		gd.warned = key
		gd.pending = true
		return NeedsConfirmation
	}

	gd.commit(key)
	return Proceed
}

// Forget clears the seen memo and any pending confirmation.
func (gd *Guard) Forget() {
	gd.seen = map[string]bool{}
	gd.warned = ""
	gd.pending = false
}

func (gd *Guard) awaiting(key string) bool {
	return gd.pending && gd.warned == key
}

func (gd *Guard) commit(key string) {
	gd.seen[key] = true
	gd.warned = ""
	gd.pending = false
}
