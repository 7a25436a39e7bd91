package screen

// Screen indicates which screen is currently displayed
type Screen int

const (
	TableScreen Screen = iota
	DetailScreen
	FilterScreen
)

func (scr Screen) String() string {
	switch scr {
	case TableScreen:
		return "records"
	case DetailScreen:
		return "detail"
	case FilterScreen:
		return "filters"
	}
	return "unknown"
}
