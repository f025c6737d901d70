package tui

import (
	"github.com/Veraticus/loanbot/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Width       int
	Height      int
	ShowSidebar bool
	ShowHelp    bool
	AltScreen   bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		Width:       100,
		Height:      30,
		ShowSidebar: true,
		ShowHelp:    true,
		AltScreen:   true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSidebar shows or hides the collected-data sidebar.
func WithSidebar(enabled bool) Option {
	return func(c *Config) {
		c.ShowSidebar = enabled
	}
}

// WithAltScreen controls whether the program takes over the whole terminal.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
