package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Color palette matching existing fatih/color usage
var (
	// ColorGreen for applied changes and success indicators
	ColorGreen = lipgloss.AdaptiveColor{Light: "#00AF00", Dark: "#00D700"}

	// ColorCyan for tags and metadata
	ColorCyan = lipgloss.AdaptiveColor{Light: "#00AFAF", Dark: "#00D7D7"}

	// ColorWhite for primary text
	ColorWhite = lipgloss.AdaptiveColor{Light: "#262626", Dark: "#FFFFFF"}

	// ColorGray for secondary text and help
	ColorGray = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#808080"}

	// ColorYellow for warnings and highlights
	ColorYellow = lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD700"}

	// ColorOrange for the cursor and focused accents
	ColorOrange = lipgloss.AdaptiveColor{Light: "#D75F00", Dark: "#FF8700"}

	// ColorTeal for selection checkmarks and staged additions
	ColorTeal = lipgloss.AdaptiveColor{Light: "#008787", Dark: "#5FD7D7"}

	// ColorRed for errors and staged removals
	ColorRed = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
)

// Reusable styles
var (
	// StyleNormal is the base style for regular text
	StyleNormal = lipgloss.NewStyle().Foreground(ColorWhite)

	// StyleHighlight is for the cursor row and active controls
	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	// StyleSelected is for selection checkmarks
	StyleSelected = lipgloss.NewStyle().Foreground(ColorTeal).Bold(true)

	// StyleTag is for item tags
	StyleTag = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAdd is for staged tag additions
	StyleAdd = lipgloss.NewStyle().Foreground(ColorGreen)

	// StyleRemove is for staged tag removals
	StyleRemove = lipgloss.NewStyle().Foreground(ColorRed)

	// StyleError is for error notices
	StyleError = lipgloss.NewStyle().Foreground(ColorRed)

	// StyleHelp is for help text and hints
	StyleHelp = lipgloss.NewStyle().Foreground(ColorGray)

	// StyleHeader is for section headers
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	// StyleBorder is for borders and separators
	StyleBorder = lipgloss.NewStyle().
			Foreground(ColorGray).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray)
)

// padOrTruncate fits s to exactly width display cells, truncating with an
// ellipsis or padding with spaces. ANSI-aware so styled fragments keep
// column alignment.
func padOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(s)
	if w > width {
		return xansi.Truncate(s, width, "…")
	}
	if w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Result table column constraints.
const (
	markWidth    = 2 // cursor or checkbox prefix
	typeWidth    = 8
	yearWidth    = 4
	minNameWidth = 14
	maxNameWidth = 44
	minTagWidth  = 10
	columnGap    = 1
)

// itemColumnWidths distributes a row's width between the name and tag
// columns; type and year stay fixed.
func itemColumnWidths(total int) (nameW, tagW int) {
	usable := total - markWidth - typeWidth - yearWidth - columnGap*3
	if usable < minNameWidth+minTagWidth {
		return minNameWidth, minTagWidth
	}
	nameW = usable * 45 / 100
	if nameW > maxNameWidth {
		nameW = maxNameWidth
	}
	if nameW < minNameWidth {
		nameW = minNameWidth
	}
	tagW = usable - nameW
	if tagW < minTagWidth {
		tagW = minTagWidth
	}
	return
}
