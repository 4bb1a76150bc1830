package terminal

import (
	"fmt"

	"github.com/fatih/color"
)

// Theme holds the color names used for the different message kinds.
type Theme struct {
	Name         string
	TextColor    string
	ErrorColor   string
	SuccessColor string
	InfoColor    string
}

// ThemeManager handles theme operations.
type ThemeManager struct {
	currentTheme Theme
}

// NewThemeManager creates a theme manager with the dark theme active.
func NewThemeManager() *ThemeManager {
	return &ThemeManager{
		currentTheme: Theme{
			Name:         "dark",
			TextColor:    "white",
			ErrorColor:   "red",
			SuccessColor: "green",
			InfoColor:    "cyan",
		},
	}
}

// SetTheme sets a new theme.
func (tm *ThemeManager) SetTheme(name string) error {
	switch name {
	case "light":
		tm.currentTheme = Theme{
			Name:         "light",
			TextColor:    "black",
			ErrorColor:   "red",
			SuccessColor: "green",
			InfoColor:    "blue",
		}
	case "dark":
		tm.currentTheme = Theme{
			Name:         "dark",
			TextColor:    "white",
			ErrorColor:   "red",
			SuccessColor: "green",
			InfoColor:    "cyan",
		}
	default:
		return fmt.Errorf("unknown theme: %s", name)
	}
	return nil
}

// GetThemeName returns the name of the current theme.
func (tm *ThemeManager) GetThemeName() string {
	return tm.currentTheme.Name
}

// GetTextColor returns the color for normal text.
func (tm *ThemeManager) GetTextColor() *color.Color {
	return getColorFromName(tm.currentTheme.TextColor)
}

// GetErrorColor returns the color for error messages.
func (tm *ThemeManager) GetErrorColor() *color.Color {
	return getColorFromName(tm.currentTheme.ErrorColor)
}

// GetSuccessColor returns the color for success messages.
func (tm *ThemeManager) GetSuccessColor() *color.Color {
	return getColorFromName(tm.currentTheme.SuccessColor)
}

// GetInfoColor returns the color for info messages.
func (tm *ThemeManager) GetInfoColor() *color.Color {
	return getColorFromName(tm.currentTheme.InfoColor)
}

// getColorFromName returns a color.Color based on the color name.
func getColorFromName(name string) *color.Color {
	switch name {
	case "black":
		return color.New(color.FgBlack)
	case "red":
		return color.New(color.FgRed)
	case "green":
		return color.New(color.FgGreen)
	case "yellow":
		return color.New(color.FgYellow)
	case "blue":
		return color.New(color.FgBlue)
	case "magenta":
		return color.New(color.FgMagenta)
	case "cyan":
		return color.New(color.FgCyan)
	case "white":
		return color.New(color.FgWhite)
	default:
		return color.New(color.FgWhite)
	}
}
