package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the terminal chrome around the water preview.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
}

var (
	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#0077be"),
		Accent:  lipgloss.Color("#00e5ff"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Border:  lipgloss.Color("#1b3b5a"),
	}

	ThemeLagoon = Theme{
		Name:    "lagoon",
		Primary: lipgloss.Color("#00a88f"),
		Accent:  lipgloss.Color("#7fffd4"),
		Text:    lipgloss.Color("#effff9"),
		Muted:   lipgloss.Color("#4f8f80"),
		Border:  lipgloss.Color("#1d4d44"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Primary: lipgloss.Color("#ff6b6b"),
		Accent:  lipgloss.Color("#feca57"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Border:  lipgloss.Color("#4a2d4b"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Border:  lipgloss.Color("#444444"),
	}

	Themes = []Theme{ThemeOcean, ThemeLagoon, ThemeSunset, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to ocean.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeOcean
}

// ThemeNames lists the theme names in cycling order.
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Next returns the theme after t in Themes, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func (t Theme) Title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
}

func (t Theme) Panel() lipgloss.Style {
	return Panel.BorderForeground(t.Border)
}

func (t Theme) Hint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted)
}
