package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme for the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Warning: lipgloss.Color("#ff8800"),
	},
	{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Warning: lipgloss.Color("#ffff00"),
	},
	{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
	},
}

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

type styles struct {
	canvas lipgloss.Style
	stats  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	active lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	paused lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Primary),
		stats:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(46),
		header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		active: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		paused: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
	}
}
