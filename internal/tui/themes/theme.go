package themes

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/amendment-desk/internal/model"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Italic        lipgloss.Style
	Selected      lipgloss.Style
	Highlighted   lipgloss.Style
	Box           lipgloss.Style
	RoundedBox    lipgloss.Style
	StepActive    lipgloss.Style
	StepDone      lipgloss.Style
	StepTodo      lipgloss.Style
	Prompt        lipgloss.Style
	Transcript    lipgloss.Style
	Listening     lipgloss.Style
	StatusPending lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Info          lipgloss.Color
	Foreground    lipgloss.Color
	Subtle        lipgloss.Color
	Border        lipgloss.Color
	Muted         lipgloss.Color
	Surface       lipgloss.Color
}

type palette struct {
	primary      lipgloss.Color
	secondary    lipgloss.Color
	success      lipgloss.Color
	warning      lipgloss.Color
	danger       lipgloss.Color
	info         lipgloss.Color
	foreground   lipgloss.Color
	subtle       lipgloss.Color
	border       lipgloss.Color
	muted        lipgloss.Color
	surface      lipgloss.Color
	selectedText lipgloss.Color
}

func newTheme(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Secondary:  p.secondary,
		Success:    p.success,
		Warning:    p.warning,
		Error:      p.danger,
		Info:       p.info,
		Foreground: p.foreground,
		Subtle:     p.subtle,
		Border:     p.border,
		Muted:      p.muted,
		Surface:    p.surface,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Italic: lipgloss.NewStyle().
			Italic(true).
			Foreground(p.foreground),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.selectedText).
			Bold(true),
		Highlighted: lipgloss.NewStyle().
			Background(p.surface).
			Foreground(p.foreground),

		Box: lipgloss.NewStyle().
			Padding(1, 2),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),

		StepActive: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true),
		StepDone: lipgloss.NewStyle().
			Foreground(p.success),
		StepTodo: lipgloss.NewStyle().
			Foreground(p.muted),
		Prompt: lipgloss.NewStyle().
			Foreground(p.secondary).
			Bold(true),
		Transcript: lipgloss.NewStyle().
			Foreground(p.subtle).
			Italic(true),
		Listening: lipgloss.NewStyle().
			Foreground(p.danger).
			Bold(true),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.danger).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),
	}
}

// Default is the default theme.
var Default = newTheme(palette{
	primary:      lipgloss.Color("#7c3aed"),
	secondary:    lipgloss.Color("#a78bfa"),
	success:      lipgloss.Color("#10b981"),
	warning:      lipgloss.Color("#f59e0b"),
	danger:       lipgloss.Color("#ef4444"),
	info:         lipgloss.Color("#3b82f6"),
	foreground:   lipgloss.Color("#fafafa"),
	subtle:       lipgloss.Color("#a3a3a3"),
	border:       lipgloss.Color("#404040"),
	muted:        lipgloss.Color("#737373"),
	surface:      lipgloss.Color("#262626"),
	selectedText: lipgloss.Color("#fafafa"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(palette{
	primary:      lipgloss.Color("#cba6f7"),
	secondary:    lipgloss.Color("#f5c2e7"),
	success:      lipgloss.Color("#a6e3a1"),
	warning:      lipgloss.Color("#f9e2af"),
	danger:       lipgloss.Color("#f38ba8"),
	info:         lipgloss.Color("#89dceb"),
	foreground:   lipgloss.Color("#cdd6f4"),
	subtle:       lipgloss.Color("#a6adc8"),
	border:       lipgloss.Color("#45475a"),
	muted:        lipgloss.Color("#6c7086"),
	surface:      lipgloss.Color("#313244"),
	selectedText: lipgloss.Color("#1e1e2e"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// StatusStyle returns the style used to render an amendment status badge.
func (t Theme) StatusStyle(s model.AmendmentStatus) lipgloss.Style {
	switch s {
	case model.AmendmentApproved:
		return t.StatusSuccess
	case model.AmendmentRejected:
		return t.StatusError
	case model.AmendmentPendingSignature:
		return t.StatusWarning
	case model.AmendmentPendingReview:
		return t.StatusInfo
	default:
		return t.StatusPending
	}
}

// VersionStyle returns the style for a version type label.
func (t Theme) VersionStyle(v model.VersionType) lipgloss.Style {
	switch v {
	case model.VersionAmendment:
		return t.StatusInfo
	case model.VersionCorrection:
		return t.StatusWarning
	default:
		return t.Bold
	}
}
