package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/tui/themes"
)

// ContractLoader fetches the latest copy of a contract.
type ContractLoader func(context.Context) (*model.Contract, error)

// HistoryModel shows a contract's version timeline and its pending
// amendments.
type HistoryModel struct {
	ctx         context.Context
	err         error
	contract    *model.Contract
	load        ContractLoader
	keymap      KeyMap
	theme       themes.Theme
	entries     []model.VersionHistoryEntry
	pending     []model.ContractAmendment
	view        viewport.Model
	help        help.Model
	config      Config
	width       int
	height      int
	showPending bool
}

// NewHistoryModel creates a history view. load may be nil, which disables
// refresh.
func NewHistoryModel(ctx context.Context, contract *model.Contract, load ContractLoader, opts ...Option) HistoryModel {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := HistoryModel{
		ctx:    ctx,
		load:   load,
		keymap: DefaultKeyMap(),
		theme:  cfg.Theme,
		view:   viewport.New(cfg.Width, previewHeight(cfg.Height)),
		help:   help.New(),
		config: cfg,
	}
	m.resize(cfg.Width, cfg.Height)
	m.setContract(contract)
	return m
}

// Init does nothing; the contract is loaded up front.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshContent()
		return m, nil

	case contractLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setContract(msg.contract)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keymap.ToggleView):
			m.showPending = !m.showPending
			m.refreshContent()
			return m, nil
		case key.Matches(msg, m.keymap.Refresh):
			if m.load == nil {
				return m, nil
			}
			return m, loadContract(m.ctx, m.load)
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// View renders the history.
func (m HistoryModel) View() string {
	title := "Contract history"
	if m.contract != nil && m.contract.KeyTerms.PropertyAddress != "" {
		title = fmt.Sprintf("Contract history: %s", m.contract.KeyTerms.PropertyAddress)
	}

	sections := []string{
		m.theme.Title.Render(title),
		m.renderTabs(),
		m.view.View(),
	}
	if m.err != nil {
		sections = append(sections, m.theme.StatusError.Render("✗ "+m.err.Error()))
	}
	if m.config.ShowHelp {
		sections = append(sections, "", m.help.View(historyHelp(m.keymap)))
	}
	return m.theme.Box.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m HistoryModel) renderTabs() string {
	versions := fmt.Sprintf("Versions (%d)", len(m.entries))
	pending := fmt.Sprintf("Pending (%d)", len(m.pending))
	if m.showPending {
		return m.theme.StepTodo.Render(versions) + "   " + m.theme.StepActive.Render(pending)
	}
	return m.theme.StepActive.Render(versions) + "   " + m.theme.StepTodo.Render(pending)
}

func (m *HistoryModel) setContract(c *model.Contract) {
	m.contract = c
	m.entries = amendment.GetVersionHistory(c)
	m.pending = amendment.GetPendingAmendments(c)
	m.refreshContent()
}

func (m *HistoryModel) refreshContent() {
	if m.showPending {
		m.view.SetContent(RenderPending(m.theme, m.pending))
	} else {
		m.view.SetContent(RenderVersions(m.theme, m.entries))
	}
	m.view.GotoTop()
}

func (m *HistoryModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.view.Width = width - 4
	m.view.Height = previewHeight(height)
	m.help.Width = width
}

// RenderVersions renders a version timeline, most recent first.
func RenderVersions(theme themes.Theme, entries []model.VersionHistoryEntry) string {
	if len(entries) == 0 {
		return theme.Subtitle.Render("No versions recorded.")
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		marker := "○"
		if e.IsCurrent {
			marker = theme.StatusSuccess.Render("●")
		}

		line := fmt.Sprintf("%s v%-3d %s  %s",
			marker,
			e.Version,
			theme.VersionStyle(e.VersionType).Render(fmt.Sprintf("%-10s", e.VersionType)),
			e.CreatedAt.Format("2006-01-02 15:04"),
		)
		if e.CreatedByName != "" {
			line += "  " + e.CreatedByName
		}
		if e.AmendmentTitle != "" {
			line += "  " + theme.Bold.Render(e.AmendmentTitle)
		}
		if e.IsCurrent {
			line += theme.Subtitle.Render("  (current)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderPending renders amendments awaiting review or signatures.
func RenderPending(theme themes.Theme, pending []model.ContractAmendment) string {
	if len(pending) == 0 {
		return theme.Subtitle.Render("No amendments pending.")
	}

	lines := make([]string, 0, len(pending))
	for _, a := range pending {
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			theme.StatusStyle(a.Status).Render(fmt.Sprintf("%-17s", a.Status)),
			theme.Bold.Render(a.Title),
			theme.Subtitle.Render(a.CreatedAt.Format("2006-01-02")),
		))
	}
	return strings.Join(lines, "\n")
}
