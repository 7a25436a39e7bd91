package screen

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"chanfilter/style"
)

// RenderFooter renders the selected row of total on the left and name on
// the right.
func RenderFooter(current, total int, name string, width int) string {

	left := fmt.Sprintf("%s/%s", humanize.Comma(int64(current)), humanize.Comma(int64(total)))
	right := name

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return style.MutedStyle.Render(left + strings.Repeat(" ", padding) + right)
}
