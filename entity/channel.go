package entity

import "strings"

// DataType is the basic type of a channel's data.
type DataType string

const (
	Scalar   DataType = "scalar"
	Text     DataType = "text"
	Date     DataType = "date"
	Image    DataType = "image"
	Waveform DataType = "waveform"
)

// ChannelInfo is what the catalog knows about a channel.
type ChannelInfo struct {
	SystemName string   `yaml:"name"`
	Label      string   `yaml:"label,omitempty"`
	DataType   DataType `yaml:"type"`
	Filterable bool     `yaml:"-"`
}

// Token returns the channel token referencing this entry.
func (info ChannelInfo) Token() Channel {
	return Channel{SystemName: info.SystemName, Label: info.DisplayName()}
}

// DisplayName is the label, falling back to the system name.
func (info ChannelInfo) DisplayName() string {
	if info.Label == "" {
		return info.SystemName
	}
	return info.Label
}

// Fixed record fields, stored under metadata rather than channels.
const (
	TimestampField        = "timestamp"
	ShotnumField          = "shotnum"
	ActiveAreaField       = "activeArea"
	ActiveExperimentField = "activeExperiment"
)

// MetadataFields lists the fixed record fields in display order.
var MetadataFields = []string{
	TimestampField,
	ShotnumField,
	ActiveAreaField,
	ActiveExperimentField,
}

// IsMetadata reports whether name is a fixed record field.
func IsMetadata(name string) bool {
	for _, field := range MetadataFields {
		if field == name {
			return true
		}
	}
	return false
}

// FieldPath resolves a channel name to the backend field path.
func FieldPath(name string) string {
	if IsMetadata(name) {
		return "metadata." + name
	}
	return "channels." + name + ".data"
}

// SortPath resolves a channel name to the backend sort key.
func SortPath(name string) string {
	if IsMetadata(name) {
		return "metadata." + name
	}
	return "channels." + name
}

// ParseFieldPath is the inverse of FieldPath.
func ParseFieldPath(path string) (name string, ok bool) {

	if rest, found := strings.CutPrefix(path, "metadata."); found {
		if IsMetadata(rest) {
			return rest, true
		}
		return "", false
	}

	rest, found := strings.CutPrefix(path, "channels.")
	if !found {
		return "", false
	}
	name, found = strings.CutSuffix(rest, ".data")
	if !found || name == "" {
		return "", false
	}
	return name, true
}
