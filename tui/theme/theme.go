package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/pkg/models"
)

const defaultThemeName = "kanagawa"

// --- Kanagawa Dragon (dark) palette ---
const (
	kanagawaDarkGreen              = "#98BB6C"
	kanagawaDarkYellow             = "#FF9E3B"
	kanagawaDarkRed                = "#FF5D62"
	kanagawaDarkCyan               = "#7E9CD8"
	kanagawaDarkViolet             = "#957FB8"
	kanagawaDarkLightText          = "#DCD7BA"
	kanagawaDarkMutedText          = "#727169"
	kanagawaDarkBorder             = "#363646"
	kanagawaDarkSelectedBackground = "#223249"
)

// --- Kanagawa Wave (light-inspired) palette ---
const (
	kanagawaLightGreen              = "#4E7C5A"
	kanagawaLightYellow             = "#A68A64"
	kanagawaLightRed                = "#C34043"
	kanagawaLightCyan               = "#5B8BBE"
	kanagawaLightViolet             = "#674D7A"
	kanagawaLightLightText          = "#2B2F42"
	kanagawaLightMutedText          = "#6C7086"
	kanagawaLightBorder             = "#B5BDC5"
	kanagawaLightSelectedBackground = "#E2E6F3"
)

// --- Terminal (ANSI) palette ---
const (
	terminalGreen              = "2"
	terminalYellow             = "3"
	terminalRed                = "1"
	terminalCyan               = "6"
	terminalViolet             = "5"
	terminalLightText          = "7"
	terminalMutedText          = "8"
	terminalBorder             = "8"
	terminalSelectedBackground = "0"
)

// Colors encapsulates the palette used by a theme. lipgloss.TerminalColor
// allows a mix of adaptive and static colors.
type Colors struct {
	Green              lipgloss.TerminalColor
	Yellow             lipgloss.TerminalColor
	Red                lipgloss.TerminalColor
	Cyan               lipgloss.TerminalColor
	Violet             lipgloss.TerminalColor
	LightText          lipgloss.TerminalColor
	MutedText          lipgloss.TerminalColor
	Border             lipgloss.TerminalColor
	SelectedBackground lipgloss.TerminalColor
}

// Theme holds the pre-configured styles used by runner's output.
type Theme struct {
	Colors Colors

	Header lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Accent   lipgloss.Style
	Box      lipgloss.Style

	// Session states, one traffic-light color each.
	StatePermission lipgloss.Style
	StateWaiting    lipgloss.Style
	StateActive     lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"kanagawa": newKanagawaColors,
	"terminal": newTerminalColors,
}

// DefaultTheme is the theme selected by RUNNER_THEME or the tui.theme
// config key.
var DefaultTheme = NewThemeWithName(getThemeName())

// NewThemeWithName constructs a theme from a specific palette name.
// Unknown names fall back to the default palette.
func NewThemeWithName(name string) *Theme {
	build, ok := themeRegistry[normalizeThemeName(name)]
	if !ok {
		build = themeRegistry[defaultThemeName]
	}
	return newThemeFromColors(build())
}

// StateStyle returns the style for a session state.
func (t *Theme) StateStyle(s models.SessionState) lipgloss.Style {
	switch s {
	case models.StatePermission:
		return t.StatePermission
	case models.StateWaiting:
		return t.StateWaiting
	default:
		return t.StateActive
	}
}

// StateGlyph renders the colored dot used for a session state.
func (t *Theme) StateGlyph(s models.SessionState) string {
	return t.StateStyle(s).Render("●")
}

// RenderHeader renders a header with the default styling.
func RenderHeader(title string) string {
	return DefaultTheme.Header.Render(title)
}

// RenderStatus renders text with the appropriate status style.
func RenderStatus(status, text string) string {
	switch status {
	case "success":
		return DefaultTheme.Success.Render(text)
	case "error":
		return DefaultTheme.Error.Render(text)
	case "warning":
		return DefaultTheme.Warning.Render(text)
	case "info":
		return DefaultTheme.Info.Render(text)
	default:
		return text
	}
}

func newThemeFromColors(colors Colors) *Theme {
	return &Theme{
		Colors: colors,

		Header: lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1),

		Success: lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(colors.Cyan).
			Bold(true),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Muted: lipgloss.NewStyle().
			Faint(true),

		Selected: lipgloss.NewStyle().
			Background(colors.SelectedBackground).
			Foreground(colors.LightText),

		Accent: lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(0, 1),

		StatePermission: lipgloss.NewStyle().Foreground(colors.Red),
		StateWaiting:    lipgloss.NewStyle().Foreground(colors.Yellow),
		StateActive:     lipgloss.NewStyle().Foreground(colors.Green),
	}
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	return normalized
}

func getThemeName() string {
	if theme := normalizeThemeName(os.Getenv("RUNNER_THEME")); theme != "" {
		return theme
	}

	cfg, err := config.LoadDefault()
	if err != nil || cfg == nil {
		return defaultThemeName
	}

	var tuiCfg struct {
		Theme string `yaml:"theme"`
	}
	if err := cfg.UnmarshalExtension("tui", &tuiCfg); err == nil {
		if theme := normalizeThemeName(tuiCfg.Theme); theme != "" {
			return theme
		}
	}
	return defaultThemeName
}

func newKanagawaColors() Colors {
	return Colors{
		Green:              lipgloss.AdaptiveColor{Light: kanagawaLightGreen, Dark: kanagawaDarkGreen},
		Yellow:             lipgloss.AdaptiveColor{Light: kanagawaLightYellow, Dark: kanagawaDarkYellow},
		Red:                lipgloss.AdaptiveColor{Light: kanagawaLightRed, Dark: kanagawaDarkRed},
		Cyan:               lipgloss.AdaptiveColor{Light: kanagawaLightCyan, Dark: kanagawaDarkCyan},
		Violet:             lipgloss.AdaptiveColor{Light: kanagawaLightViolet, Dark: kanagawaDarkViolet},
		LightText:          lipgloss.AdaptiveColor{Light: kanagawaLightLightText, Dark: kanagawaDarkLightText},
		MutedText:          lipgloss.AdaptiveColor{Light: kanagawaLightMutedText, Dark: kanagawaDarkMutedText},
		Border:             lipgloss.AdaptiveColor{Light: kanagawaLightBorder, Dark: kanagawaDarkBorder},
		SelectedBackground: lipgloss.AdaptiveColor{Light: kanagawaLightSelectedBackground, Dark: kanagawaDarkSelectedBackground},
	}
}

func newTerminalColors() Colors {
	return Colors{
		Green:              lipgloss.Color(terminalGreen),
		Yellow:             lipgloss.Color(terminalYellow),
		Red:                lipgloss.Color(terminalRed),
		Cyan:               lipgloss.Color(terminalCyan),
		Violet:             lipgloss.Color(terminalViolet),
		LightText:          lipgloss.Color(terminalLightText),
		MutedText:          lipgloss.Color(terminalMutedText),
		Border:             lipgloss.Color(terminalBorder),
		SelectedBackground: lipgloss.Color(terminalSelectedBackground),
	}
}
