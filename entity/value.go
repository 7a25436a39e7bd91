package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Value wraps a field value read back from a store and provides type
// conversion helpers.
type Value struct {
	Raw any
}

// String returns the value as a string.
func (v Value) String() string {
	switch raw := v.Raw.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(raw, 'g', -1, 64)
	case time.Time:
		return raw.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("%v", v.Raw)
}

// Float returns the value as a float64, converting integers and numeric
// strings.
func (v Value) Float() (float64, error) {
	switch raw := v.Raw.(type) {
	case float64:
		return raw, nil
	case float32:
		return float64(raw), nil
	case int64:
		return float64(raw), nil
	case int32:
		return float64(raw), nil
	case int:
		return float64(raw), nil
	case string:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "value %q is not numeric", raw)
		}
		return f, nil
	}
	return 0, errors.Errorf("value is not numeric: %T", v.Raw)
}

// Time returns the value as a time.Time.
func (v Value) Time() (time.Time, error) {
	t, ok := v.Raw.(time.Time)
	if !ok {
		return time.Time{}, errors.Errorf("value is not a time.Time: %T", v.Raw)
	}
	return t, nil
}
