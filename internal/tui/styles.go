// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     tui
// Description: Styles for the gridwerk terminal editor
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/gridwerk/internal/sheet"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorBgPanel = lipgloss.Color("#1E293B") // Slate 800

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// Grid styles
var (
	GridPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true)

	RowHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	CellStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	EmptyCellStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)
)

// Log styles
var (
	LogPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	CallStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	ResultStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)
)

// Input styles
var (
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)
)

// Status and help styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Logo
const Logo = "gridwerk"

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}

// cellStyle applies the presentation attributes of a cell
func cellStyle(c *sheet.Style) lipgloss.Style {
	st := CellStyle
	if c == nil {
		return st
	}
	if c.FontWeight == "bold" {
		st = st.Bold(true)
	}
	if c.FontStyle == "italic" {
		st = st.Italic(true)
	}
	if c.Color != "" {
		st = st.Foreground(lipgloss.Color(c.Color))
	}
	if c.BackgroundColor != "" {
		st = st.Background(lipgloss.Color(c.BackgroundColor))
	}
	return st
}
