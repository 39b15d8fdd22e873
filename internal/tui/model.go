package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/tui/themes"
	"github.com/Veraticus/amendment-desk/internal/wizard"
)

// WizardModel renders a wizard session and turns key presses into wizard
// actions. The session owns all state; the model only mirrors snapshots.
type WizardModel struct {
	ctx       context.Context
	err       error
	session   *wizard.Session
	completed *model.CompletedAddendum
	infos     map[model.AddendumType]model.AddendumTypeInfo
	keymap    KeyMap
	theme     themes.Theme
	notice    string
	types     []model.AddendumTypeInfo
	state     wizard.State
	input     textinput.Model
	spinner   spinner.Model
	preview   viewport.Model
	help      help.Model
	config    Config
	cursor    int
	width     int
	height    int
	cancelled bool
	quitting  bool
}

// NewWizardModel creates the model for a session built on catalog c.
func NewWizardModel(ctx context.Context, s *wizard.Session, c *catalog.Catalog, opts ...Option) WizardModel {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newWizardModel(ctx, s, c, cfg)
}

func newWizardModel(ctx context.Context, s *wizard.Session, c *catalog.Catalog, cfg Config) WizardModel {
	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 500

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(cfg.Theme.Prompt),
	)

	h := help.New()
	h.ShowAll = false

	m := WizardModel{
		ctx:     ctx,
		session: s,
		infos:   make(map[model.AddendumType]model.AddendumTypeInfo, c.Len()),
		keymap:  DefaultKeyMap(),
		theme:   cfg.Theme,
		types:   orderTypes(c),
		state:   s.State(),
		input:   input,
		spinner: sp,
		preview: viewport.New(cfg.Width, previewHeight(cfg.Height)),
		help:    h,
		config:  cfg,
	}
	for _, info := range m.types {
		m.infos[info.Type] = info
	}
	m.resize(cfg.Width, cfg.Height)
	return m
}

// orderTypes lists commonly used types first, each group in catalog order.
func orderTypes(c *catalog.Catalog) []model.AddendumTypeInfo {
	all := c.ListAll()
	ordered := make([]model.AddendumTypeInfo, 0, len(all))
	for _, info := range all {
		if info.CommonlyUsed {
			ordered = append(ordered, info)
		}
	}
	for _, info := range all {
		if !info.CommonlyUsed {
			ordered = append(ordered, info)
		}
	}
	return ordered
}

func previewHeight(total int) int {
	// Header, stepper, status and help lines.
	h := total - 10
	if h < 3 {
		return 3
	}
	return h
}

// Init starts listening for session snapshots.
func (m WizardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForState(m.ctx, m.session.Updates()),
		m.spinner.Tick,
	}
	if m.config.StartWithVoice && m.session.Voice() != nil {
		cmds = append(cmds, m.dispatch(wizard.StartVoice()))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if m.config.Recorder != nil {
		if wm, ok := next.(WizardModel); ok {
			m.config.Recorder.Record(wm, msg)
		}
	}
	return next, cmd
}

func (m WizardModel) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		cmd := m.applyState(msg.state)
		return m, tea.Batch(cmd, waitForState(m.ctx, m.session.Updates()))

	case dispatchedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, wizard.ErrSessionStopped) {
				m.quitting = true
				return m, tea.Quit
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		rejected := msg.action == wizard.ActionText && m.rejectedInput(msg.state)
		cmd := m.applyState(msg.state)
		if rejected {
			if field, ok := m.currentField(); ok {
				m.notice = fmt.Sprintf("That doesn't look like a %s for %s.", field.Type, field.Label)
			}
		}
		return m, cmd

	case completedMsg:
		a := msg.addendum
		m.completed = &a
		m.quitting = true
		return m, tea.Quit

	case cancelledMsg:
		m.cancelled = true
		m.quitting = true
		return m, tea.Quit

	case sessionEndedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state.Step == wizard.StepDetails {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	m.notice = ""

	switch {
	case key.Matches(msg, k.Cancel):
		return m, closeSession(m.session)
	case key.Matches(msg, k.Voice):
		return m, m.toggleVoice()
	}

	if m.state.IsProcessing {
		if key.Matches(msg, k.PageUp, k.PageDown) {
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.state.Step != wizard.StepDetails && key.Matches(msg, k.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.state.Step {
	case wizard.StepTypeSelection:
		switch {
		case key.Matches(msg, k.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, k.Down):
			if m.cursor < len(m.types)-1 {
				m.cursor++
			}
		case key.Matches(msg, k.Select):
			if len(m.types) > 0 {
				return m, m.dispatch(wizard.SelectType(m.types[m.cursor].Type))
			}
		}
		return m, nil

	case wizard.StepDetails:
		switch {
		case key.Matches(msg, k.Back):
			return m, m.dispatch(wizard.Back())
		case key.Matches(msg, k.Retry):
			return m, m.dispatch(wizard.Retry())
		case key.Matches(msg, k.Select):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				m.notice = "Type a value or say it aloud."
				return m, nil
			}
			return m, m.dispatch(wizard.Text(text))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case wizard.StepReview:
		switch {
		case key.Matches(msg, k.Confirm):
			return m, m.dispatch(wizard.Confirm())
		case key.Matches(msg, k.Edit, k.Back):
			return m, m.dispatch(wizard.Edit())
		case key.Matches(msg, k.Retry):
			return m, m.dispatch(wizard.Retry())
		case key.Matches(msg, k.PageUp, k.PageDown, k.Up, k.Down):
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}

	case wizard.StepConfirm:
		switch {
		case key.Matches(msg, k.Submit):
			return m, m.dispatch(wizard.Submit())
		case key.Matches(msg, k.Back):
			return m, m.dispatch(wizard.Back())
		case key.Matches(msg, k.Retry):
			return m, m.dispatch(wizard.Retry())
		}
	}

	return m, nil
}

func (m *WizardModel) toggleVoice() tea.Cmd {
	ch := m.session.Voice()
	if ch == nil || !ch.Supported() {
		m.notice = "Voice input is not available."
		return nil
	}
	if ch.Listening() {
		return m.dispatch(wizard.StopVoice())
	}
	return m.dispatch(wizard.StartVoice())
}

func (m WizardModel) dispatch(a wizard.Action) tea.Cmd {
	return dispatch(m.ctx, m.session, a, m.config.DispatchWait)
}

// applyState mirrors a snapshot and prepares the field input when the
// wizard moves to another field.
func (m *WizardModel) applyState(st wizard.State) tea.Cmd {
	prev := m.state
	m.state = st

	if st.GeneratedContent != prev.GeneratedContent {
		m.preview.SetContent(st.GeneratedContent)
		m.preview.GotoTop()
	}

	if st.Step != wizard.StepDetails {
		m.input.Blur()
		m.input.Reset()
		return nil
	}

	moved := prev.Step != wizard.StepDetails ||
		prev.FieldIndex != st.FieldIndex ||
		prev.SelectedType != st.SelectedType
	if !moved {
		return nil
	}

	m.input.Reset()
	field, ok := m.currentField()
	if !ok {
		m.input.Blur()
		return nil
	}
	m.input.Placeholder = field.Placeholder
	if v, ok := st.Details[field.Key]; ok && !v.IsEmpty() {
		m.input.SetValue(v.String())
	}
	return m.input.Focus()
}

// rejectedInput reports whether typed input left the current field as it
// was, which is how the wizard ignores a value of the wrong kind.
func (m WizardModel) rejectedInput(next wizard.State) bool {
	if m.state.Step != wizard.StepDetails || next.Step != wizard.StepDetails {
		return false
	}
	if next.IsProcessing || next.Error != "" || next.FieldIndex != m.state.FieldIndex {
		return false
	}
	field, ok := m.currentField()
	if !ok {
		return false
	}
	before, had := m.state.Details[field.Key]
	after, has := next.Details[field.Key]
	return had == has && before.String() == after.String()
}

// currentField returns the field awaiting a value.
func (m WizardModel) currentField() (model.AddendumField, bool) {
	info, ok := m.selectedInfo()
	if !ok || m.state.Step != wizard.StepDetails {
		return model.AddendumField{}, false
	}
	if m.state.FieldIndex < 0 || m.state.FieldIndex >= len(info.RequiredFields) {
		return model.AddendumField{}, false
	}
	return info.RequiredFields[m.state.FieldIndex], true
}

func (m WizardModel) selectedInfo() (model.AddendumTypeInfo, bool) {
	if !m.state.HasSelectedType() {
		return model.AddendumTypeInfo{}, false
	}
	info, ok := m.infos[m.state.SelectedType]
	return info, ok
}

func (m *WizardModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
	m.preview.Width = width - 4
	m.preview.Height = previewHeight(height)
	m.help.Width = width
}

// State returns the last snapshot the model rendered.
func (m WizardModel) State() wizard.State {
	return m.state
}

// Completed returns the submitted addendum, if the wizard finished.
func (m WizardModel) Completed() (model.CompletedAddendum, bool) {
	if m.completed == nil {
		return model.CompletedAddendum{}, false
	}
	return *m.completed, true
}

// Cancelled reports whether the wizard was closed without submitting.
func (m WizardModel) Cancelled() bool {
	return m.cancelled
}

// Err returns the last error that reached the UI outside the wizard state.
func (m WizardModel) Err() error {
	return m.err
}
