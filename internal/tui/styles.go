package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/shellfolio/internal/model"
)

type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	accent lipgloss.Color
	alert  lipgloss.Color
	// fade runs from the console text color to the background.
	fade []lipgloss.Color
}

var (
	darkPalette = palette{
		text:   lipgloss.Color("#F0F0F0"),
		muted:  lipgloss.Color("#8C8C8C"),
		accent: lipgloss.Color("#C89A3A"),
		alert:  lipgloss.Color("#FF4D4F"),
		fade:   []lipgloss.Color{"#B0B0B0", "#6E6E6E", "#3A3A3A", "#1A1A1A"},
	}
	lightPalette = palette{
		text:   lipgloss.Color("#1F1F1F"),
		muted:  lipgloss.Color("#6E6E6E"),
		accent: lipgloss.Color("#8A5A00"),
		alert:  lipgloss.Color("#C62828"),
		fade:   []lipgloss.Color{"#5A5A5A", "#8C8C8C", "#C0C0C0", "#E8E8E8"},
	}
)

type styles struct {
	history lipgloss.Style
	dir     lipgloss.Style
	command lipgloss.Style
	cursor  lipgloss.Style
	footer  lipgloss.Style
	alert   lipgloss.Style
	fade    []lipgloss.Style
}

// paletteFor resolves a theme preference. The device theme follows the
// terminal background.
func paletteFor(theme string) palette {
	switch theme {
	case model.ThemeLight:
		return lightPalette
	case model.ThemeDark:
		return darkPalette
	default:
		if lipgloss.HasDarkBackground() {
			return darkPalette
		}
		return lightPalette
	}
}

func newStyles(p palette) styles {
	s := styles{
		history: lipgloss.NewStyle().Foreground(p.muted),
		dir:     lipgloss.NewStyle().Foreground(p.accent),
		command: lipgloss.NewStyle().Foreground(p.text),
		cursor:  lipgloss.NewStyle().Foreground(p.accent),
		footer:  lipgloss.NewStyle().Foreground(p.muted),
		alert:   lipgloss.NewStyle().Foreground(p.alert),
	}
	for _, c := range p.fade {
		s.fade = append(s.fade, lipgloss.NewStyle().Foreground(c))
	}
	return s
}
