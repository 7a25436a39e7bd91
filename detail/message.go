package detail

import nt "chanfilter/entity"

type DetailMsg interface {
	isDetailMsg()
}

func (SizeMsg) isDetailMsg()    {}
func (RecordMsg) isDetailMsg()  {}
func (ColumnsMsg) isDetailMsg() {}

type SizeMsg struct {
	Width  int
	Height int
}

type RecordMsg struct {
	Record nt.Record
}

type ColumnsMsg struct {
	Channels []nt.ChannelInfo
}
