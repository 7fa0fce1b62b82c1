// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Palette. The accents match the default category colors so messages and
// category labels read as one scheme.
var (
	PrimaryColor = lipgloss.Color("#64748B") // slate, the default category color
	SuccessColor = lipgloss.Color("#4ADE80")
	WarningColor = lipgloss.Color("#FACC15")
	ErrorColor   = lipgloss.Color("#F87171")
	InfoColor    = lipgloss.Color("#60A5FA")
	SubtleColor  = lipgloss.Color("#94A3B8")
	BorderColor  = lipgloss.Color("#334155")
)

var (
	// TitleStyle is used for box titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	// SubtitleStyle is used for secondary lines such as empty-list notices.
	SubtitleStyle = lipgloss.NewStyle().Foreground(SubtleColor).Italic(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	// HeaderStyle renders table column headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// PromptStyle is used for confirmation prompts.
	PromptStyle = lipgloss.NewStyle().Bold(true)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	AppIcon     = "💸"
	ChartIcon   = "📊"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatCategory renders a category label in its own color. Invalid or empty
// colors fall back to the subtle style.
func FormatCategory(icon, name, color string) string {
	label := strings.TrimSpace(icon + " " + name)
	if !hexColorRegex.MatchString(color) {
		return SubtleStyle.Render(label)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(label)
}

// FormatHeader renders table column headers joined by tabs for a tabwriter.
func FormatHeader(columns ...string) string {
	rendered := make([]string, len(columns))
	for i, c := range columns {
		rendered[i] = HeaderStyle.Render(c)
	}
	return strings.Join(rendered, "\t")
}

// FormatPrompt formats a confirmation question.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt) + " "
}

// RenderBox renders content under a bold title in a rounded box.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, TitleStyle.Render(title), content))
}
