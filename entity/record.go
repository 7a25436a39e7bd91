package entity

// Record is one shot as returned by a records backend.
type Record struct {
	Id       string
	Metadata map[string]Value
	Channels map[string]Value
}

// Get returns a metadata or channel value by channel name.
func (rec Record) Get(name string) Value {
	if IsMetadata(name) {
		return rec.Metadata[name]
	}
	return rec.Channels[name]
}

// Sort represents a sort directive for record queries.
type Sort struct {
	Field string // Channel name to sort by
	Desc  bool   // Sort descending if true, ascending if false
}
