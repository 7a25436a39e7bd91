// Package query assembles records requests from applied filters and the
// search bar's date and shot number ranges.
package query

import (
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
	"chanfilter/condition"
)

// TimeFormat is how range bounds are written for the backend.
const TimeFormat = "2006-01-02 15:04:05"

// DateRange bounds record timestamps, exclusive. Zero times are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ShotnumRange bounds shot numbers, inclusive. Nil bounds are open.
type ShotnumRange struct {
	Min *int
	Max *int
}

// Search holds the parameters set outside the filter editor.
type Search struct {
	DateRange    DateRange
	ShotnumRange ShotnumRange
	// MaxShots caps the records returned when no page is given, zero for no cap.
	MaxShots int
}

// Page selects a window of results, zero Size for everything.
type Page struct {
	Offset int
	Size   int
}

// Request is everything needed to fetch records.
type Request struct {
	Filter nt.Condition
	Search Search
	Sorts  []nt.Sort
	Page   Page
}

// Condition combines the filter with the search ranges, nil when there is
// nothing to match on.
func (req Request) Condition() nt.Condition {

	var parts []nt.Condition
	if and, ok := req.Filter.(nt.And); ok {
		parts = append(parts, and.Children...)
	} else if req.Filter != nil {
		parts = append(parts, req.Filter)
	}

	field := nt.FieldPath(nt.TimestampField)
	dr := req.Search.DateRange
	if !dr.From.IsZero() {
		parts = append(parts, nt.ComparisonNode{Field: field, Op: nt.Gt, Value: dr.From.Format(TimeFormat)})
	}
	if !dr.To.IsZero() {
		parts = append(parts, nt.ComparisonNode{Field: field, Op: nt.Lt, Value: dr.To.Format(TimeFormat)})
	}

	field = nt.FieldPath(nt.ShotnumField)
	sr := req.Search.ShotnumRange
	if sr.Min != nil {
		parts = append(parts, nt.ComparisonNode{Field: field, Op: nt.Gte, Value: float64(*sr.Min)})
	}
	if sr.Max != nil {
		parts = append(parts, nt.ComparisonNode{Field: field, Op: nt.Lte, Value: float64(*sr.Max)})
	}

	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return nt.And{Children: parts}
}

// Limit is the page size, else MaxShots, zero for no limit.
func (req Request) Limit() int {
	if req.Page.Size > 0 {
		return req.Page.Size
	}
	return max(req.Search.MaxShots, 0)
}

// Values encodes the request as query parameters for a records endpoint.
func (req Request) Values() (vals url.Values, err error) {

	vals, err = req.CountValues()
	if err != nil {
		return
	}

	for _, sort := range req.Sorts {
		dir := "asc"
		if sort.Desc {
			dir = "desc"
		}
		vals.Add("order", nt.SortPath(sort.Field)+" "+dir)
	}

	if req.Page.Size > 0 {
		vals.Set("skip", strconv.Itoa(req.Page.Offset))
	}
	if limit := req.Limit(); limit > 0 {
		vals.Set("limit", strconv.Itoa(limit))
	}
	return
}

// CountValues encodes only the conditions, for a count endpoint.
func (req Request) CountValues() (vals url.Values, err error) {

	vals = url.Values{}

	cond := req.Condition()
	if cond == nil {
		return
	}

	data, err := condition.Marshal(cond)
	if err != nil {
		err = errors.Wrapf(err, "failed to encode conditions")
		return
	}

	vals.Set("conditions", string(data))
	return
}
