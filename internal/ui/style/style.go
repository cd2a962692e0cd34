// Package style provides shared styling primitives for the maintenance commands.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

// LabelWidth is the column width of key labels.
const LabelWidth = 20

// Styles groups the text styles bound to one renderer.
type Styles struct {
	Heading lipgloss.Style
	Label   lipgloss.Style
	Good    lipgloss.Style
	Bad     lipgloss.Style
	Muted   lipgloss.Style
}

// New builds the styles for r.
func New(r *lipgloss.Renderer) Styles {
	return Styles{
		Heading: r.NewStyle().Bold(true).Foreground(Iris),
		Label:   r.NewStyle().Foreground(Slate).Width(LabelWidth),
		Good:    r.NewStyle().Foreground(Green),
		Bad:     r.NewStyle().Foreground(Red),
		Muted:   r.NewStyle().Foreground(Slate),
	}
}

// Status renders a check or cross icon followed by text.
func (s Styles) Status(ok bool, text string) string {
	if ok {
		return s.Good.Render(Check + " " + text)
	}
	return s.Bad.Render(Cross + " " + text)
}
