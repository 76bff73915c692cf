package output

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	failure  lipgloss.Style
	high     lipgloss.Style
	medium   lipgloss.Style
	low      lipgloss.Style
	frame    lipgloss.Style
	barFill  lipgloss.Style
	barEmpty lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	border   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:    r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		success:  r.NewStyle().Foreground(lipgloss.Color("10")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("11")),
		failure:  r.NewStyle().Foreground(lipgloss.Color("9")),
		high:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		medium:   r.NewStyle().Foreground(lipgloss.Color("11")),
		low:      r.NewStyle().Foreground(lipgloss.Color("10")),
		frame:    r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		barFill:  r.NewStyle().Foreground(lipgloss.Color("12")),
		barEmpty: r.NewStyle().Foreground(lipgloss.Color("8")),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		border:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
