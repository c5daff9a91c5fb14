package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by the command output and the interactive prompt.
// These colors are designed for dark terminal backgrounds with good contrast.
const (
	// ColorPrimary is purple, used for titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green, used for listings and section names.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorWarning is amber, used for an unsaved session.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is cyan, used for the archive name and commands.
	ColorHighlight = lipgloss.Color("#06B6D4")
)

var (
	// TitleStyle is for primary headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for listing headers and help sections.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// WarningStyle is for the name of an unsaved session.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for archive names and command names.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)
