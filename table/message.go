package table

import nt "chanfilter/entity"

type TableMsg interface {
	isTableMsg()
}

func (SizeMsg) isTableMsg()    {}
func (PageMsg) isTableMsg()    {}
func (ColumnsMsg) isTableMsg() {}
func (ResetMsg) isTableMsg()   {}

type SizeMsg struct {
	Width  int
	Height int
}

// PageMsg carries a page of records and the total matching.
type PageMsg struct {
	Records []nt.Record
	Count   int
}

type ColumnsMsg struct {
	Channels []nt.ChannelInfo
}

// ResetMsg returns to the first record, as after an apply.
type ResetMsg struct{}
