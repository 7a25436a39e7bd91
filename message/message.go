// Package message holds messages passed between editor components.
package message

import nt "chanfilter/entity"

// ErrorMsg contains an error
type ErrorMsg struct {
	Err error
}

// AppliedMsg signals that the applied filters changed
type AppliedMsg struct {
	Condition nt.Condition
}

// CountMsg contains the number of records matching the applied filters
type CountMsg struct {
	Count int
}

// GetPageMsg asks for a page of records matching the applied filters
type GetPageMsg struct {
	Offset int
	Size   int
}

// SelectedMsg signals the selected record changed
type SelectedMsg struct {
	Row    int // 1-indexed
	Record nt.Record
}
