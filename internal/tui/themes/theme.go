// Package themes defines the color schemes of the chat screen.
package themes

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/loanbot/internal/model"
)

// Palette is the set of colors a Theme is derived from.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// Theme holds the styles the chat screen renders with.
type Theme struct {
	Title         lipgloss.Style
	Bold          lipgloss.Style
	RoundedBox    lipgloss.Style
	ProgressFull  lipgloss.Style
	ProgressEmpty lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusPending lipgloss.Style
	Palette
}

// New derives every style from p.
func New(p Palette) Theme {
	status := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return Theme{
		Palette:       p,
		Title:         lipgloss.NewStyle().Bold(true).Foreground(p.Text).MarginBottom(1),
		Bold:          lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		RoundedBox:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(1, 2),
		ProgressFull:  lipgloss.NewStyle().Foreground(p.Primary),
		ProgressEmpty: lipgloss.NewStyle().Foreground(p.Border),
		StatusSuccess: status(p.Success),
		StatusWarning: status(p.Warning),
		StatusError:   status(p.Error),
		StatusPending: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
	}
}

var (
	// Default uses bank blues on a dark terminal.
	Default = New(Palette{
		Primary:   "#2563eb",
		Secondary: "#60a5fa",
		Text:      "#fafafa",
		Muted:     "#737373",
		Border:    "#404040",
		Success:   "#10b981",
		Warning:   "#f59e0b",
		Error:     "#ef4444",
	})

	// CatppuccinMocha follows the Catppuccin Mocha flavor.
	CatppuccinMocha = New(Palette{
		Primary:   "#cba6f7",
		Secondary: "#f5c2e7",
		Text:      "#cdd6f4",
		Muted:     "#6c7086",
		Border:    "#45475a",
		Success:   "#a6e3a1",
		Warning:   "#f9e2af",
		Error:     "#f38ba8",
	})

	// HighContrast sticks to the basic ANSI colors.
	HighContrast = New(Palette{
		Primary:   "12",
		Secondary: "14",
		Text:      "15",
		Muted:     "7",
		Border:    "15",
		Success:   "10",
		Warning:   "11",
		Error:     "9",
	})
)

var registry = map[string]Theme{
	"default":          Default,
	"catppuccin-mocha": CatppuccinMocha,
	"high-contrast":    HighContrast,
}

// GetTheme returns the named theme, falling back to Default.
func GetTheme(name string) Theme {
	if t, ok := registry[name]; ok {
		return t
	}
	return Default
}

// Names lists the registered theme names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecisionStyle returns the status style matching a decision outcome.
func (t Theme) DecisionStyle(status model.DecisionStatus) lipgloss.Style {
	switch status {
	case model.StatusApproved:
		return t.StatusSuccess
	case model.StatusConditional:
		return t.StatusWarning
	case model.StatusRejected:
		return t.StatusError
	default:
		return t.StatusPending
	}
}
