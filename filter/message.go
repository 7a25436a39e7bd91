package filter

import (
	"chanfilter"
	"chanfilter/guard"
)

type FilterMsg interface {
	isFilterMsg()
}

func (SizeMsg) isFilterMsg()     {}
func (EstimateMsg) isFilterMsg() {}

type SizeMsg struct {
	Width  int
	Height int
}

// EstimateMsg carries the record count for a candidate being applied.
type EstimateMsg struct {
	Candidate chanfilter.Candidate
	Estimate  guard.Estimate
	Err       error
}
