// Package catalog provides read-only lookup of channel metadata.
package catalog

import (
	"strings"

	nt "chanfilter/entity"
)

// Catalog looks up channels by system name.
type Catalog interface {
	// Lookup returns the channel's info, false if unknown.
	Lookup(name string) (nt.ChannelInfo, bool)
	// Channels returns all known channels in display order.
	Channels() []nt.ChannelInfo
}

// Fixed returns the channels present on every record.
// Timestamp is never filterable here; it has a dedicated range search.
func Fixed() []nt.ChannelInfo {
	return []nt.ChannelInfo{
		{SystemName: nt.TimestampField, Label: "Time", DataType: nt.Date, Filterable: false},
		{SystemName: nt.ShotnumField, Label: "Shot Number", DataType: nt.Scalar, Filterable: true},
		{SystemName: nt.ActiveAreaField, Label: "Active Area", DataType: nt.Text, Filterable: true},
		{SystemName: nt.ActiveExperimentField, Label: "Active Experiment", DataType: nt.Text, Filterable: true},
	}
}

// Static is an in-memory catalog.
type Static struct {
	channels []nt.ChannelInfo
	index    map[string]int
}

// New creates a catalog holding the fixed channels followed by extra.
// Extra entries naming a fixed channel are ignored, later duplicates replace
// earlier ones.
func New(extra ...nt.ChannelInfo) *Static {

	cat := &Static{index: map[string]int{}}
	for _, info := range Fixed() {
		cat.add(info)
	}

	for _, info := range extra {
		if info.SystemName == "" || nt.IsMetadata(info.SystemName) {
			continue
		}
		if info.DataType == "" {
			info.DataType = nt.Scalar
		}
		info.Filterable = Filterable(info.DataType)
		cat.add(info)
	}

	return cat
}

// Filterable reports whether channels of the given type can be filtered on.
// Images and waveforms have no comparable data.
func Filterable(dt nt.DataType) bool {
	switch dt {
	case nt.Scalar, nt.Text, nt.Date:
		return true
	}
	return false
}

func (cat *Static) add(info nt.ChannelInfo) {
	if i, ok := cat.index[info.SystemName]; ok {
		cat.channels[i] = info
		return
	}
	cat.index[info.SystemName] = len(cat.channels)
	cat.channels = append(cat.channels, info)
}

// Lookup returns the channel's info, false if unknown.
func (cat *Static) Lookup(name string) (nt.ChannelInfo, bool) {
	i, ok := cat.index[name]
	if !ok {
		return nt.ChannelInfo{}, false
	}
	return cat.channels[i], true
}

// Channels returns all known channels in display order.
func (cat *Static) Channels() []nt.ChannelInfo {
	return append([]nt.ChannelInfo{}, cat.channels...)
}

// Filterables returns the channels that may appear in a filter.
func Filterables(cat Catalog) []nt.ChannelInfo {
	var out []nt.ChannelInfo
	for _, info := range cat.Channels() {
		if info.Filterable {
			out = append(out, info)
		}
	}
	return out
}

// Find looks a channel up by system name or display label, ignoring case.
func Find(cat Catalog, text string) (nt.ChannelInfo, bool) {

	if info, ok := cat.Lookup(text); ok {
		return info, true
	}
	for _, info := range cat.Channels() {
		if strings.EqualFold(info.SystemName, text) || strings.EqualFold(info.DisplayName(), text) {
			return info, true
		}
	}
	return nt.ChannelInfo{}, false
}
