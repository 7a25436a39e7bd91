package guard

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	nt "chanfilter/entity"
	"chanfilter/condition"
)

// Estimator counts the records matching a condition.
// A nil condition matches everything.
type Estimator interface {
	Count(ctx context.Context, cond nt.Condition) (count int, err error)
}

// Shared collapses concurrent counts of the same condition into one call to
// the wrapped estimator.
type Shared struct {
	Estimator Estimator

	group singleflight.Group
}

// Count counts through the wrapped estimator, sharing in-flight results.
func (sh *Shared) Count(ctx context.Context, cond nt.Condition) (count int, err error) {

	val, err, _ := sh.group.Do(condition.Key(cond), func() (any, error) {
		return sh.Estimator.Count(ctx, cond)
	})
	if err != nil {
		return
	}

	count = val.(int)
	return
}

// Measure runs est for cond and returns the estimate for key.
// A failed count gives an unknown estimate along with the error.
func Measure(ctx context.Context, est Estimator, key string, cond nt.Condition) (Estimate, error) {

	if est == nil {
		return Estimate{Key: key}, nil
	}

	count, err := est.Count(ctx, cond)
	if err != nil {
		return Estimate{Key: key}, err
	}
	return Estimate{Key: key, Count: count, Known: true}, nil
}

func (est Estimate) String() string {
	if !est.Known {
		return "unknown"
	}
	return strconv.Itoa(est.Count)
}
