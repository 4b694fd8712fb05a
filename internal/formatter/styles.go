package formatter

import "github.com/charmbracelet/lipgloss"

var styles = NewPalette("#FF5500", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
}

// NewPalette builds a palette from accent, success, error, warning and muted colors.
func NewPalette(accent, success, failure, warning, muted string) *Palette {
	return &Palette{
		title:  NewBold(accent).MarginBottom(1),
		header: NewBold(accent).Padding(0, 1),
		cell:   lipgloss.NewStyle().Padding(0, 1),
		border: NewStyle(muted),
		ok:     NewBold(success),
		err:    NewBold(failure),
		warn:   NewStyle(warning),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

// Success renders a status line for a completed action.
func Success(msg string) string { return styles.ok.Render("✓ " + msg) }

// Failure renders a status line for a failed action.
func Failure(msg string) string { return styles.err.Render("✗ " + msg) }

// Warning renders a muted caution line.
func Warning(msg string) string { return styles.warn.Render(msg) }
