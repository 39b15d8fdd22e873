package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/amendment-desk/internal/wizard"
)

var wizardSteps = []struct {
	step  wizard.Step
	label string
}{
	{wizard.StepTypeSelection, "Type"},
	{wizard.StepDetails, "Details"},
	{wizard.StepReview, "Review"},
	{wizard.StepConfirm, "Confirm"},
}

// View renders the wizard.
func (m WizardModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.theme.Title.Render("New Addendum"),
		m.renderStepper(),
		"",
	}

	switch m.state.Step {
	case wizard.StepTypeSelection:
		sections = append(sections, m.renderTypeSelection())
	case wizard.StepDetails:
		sections = append(sections, m.renderDetails())
	case wizard.StepReview:
		sections = append(sections, m.renderReview())
	case wizard.StepConfirm:
		sections = append(sections, m.renderConfirm())
	}

	if status := m.renderStatus(); status != "" {
		sections = append(sections, "", status)
	}
	if m.config.ShowHelp {
		sections = append(sections, "", m.help.View(m.stepKeys()))
	}

	return m.theme.Box.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m WizardModel) renderStepper() string {
	current := 0
	for i, s := range wizardSteps {
		if s.step == m.state.Step {
			current = i
		}
	}

	parts := make([]string, len(wizardSteps))
	for i, s := range wizardSteps {
		label := fmt.Sprintf("%d %s", i+1, s.label)
		switch {
		case i < current:
			parts[i] = m.theme.StepDone.Render("✓ " + s.label)
		case i == current:
			parts[i] = m.theme.StepActive.Render(label)
		default:
			parts[i] = m.theme.StepTodo.Render(label)
		}
	}
	return strings.Join(parts, m.theme.StepTodo.Render(" › "))
}

func (m WizardModel) renderTypeSelection() string {
	lines := []string{m.theme.Subtitle.Render("What kind of addendum?")}

	for i, info := range m.types {
		line := fmt.Sprintf("%s %s", info.Icon, info.Label)
		if info.CommonlyUsed {
			line += " ★"
		}
		if i == m.cursor {
			lines = append(lines, m.theme.Selected.Render("› "+line))
			if info.Description != "" {
				lines = append(lines, m.theme.Subtitle.Render("    "+info.Description))
			}
			continue
		}
		lines = append(lines, m.theme.Normal.Render("  "+line))
	}

	return strings.Join(lines, "\n")
}

func (m WizardModel) renderDetails() string {
	info, ok := m.selectedInfo()
	if !ok {
		return ""
	}

	lines := []string{m.theme.Bold.Render(fmt.Sprintf("%s %s", info.Icon, info.Label))}

	for i, f := range info.RequiredFields {
		v, has := m.state.Details[f.Key]
		if i >= m.state.FieldIndex || !has || v.IsEmpty() {
			continue
		}
		lines = append(lines, m.theme.StepDone.Render("✓ ")+
			m.theme.Subtitle.Render(f.Label+": ")+
			m.theme.Normal.Render(v.String()))
	}

	if m.state.IsProcessing {
		lines = append(lines, "", m.spinner.View()+" Drafting addendum...")
		return strings.Join(lines, "\n")
	}

	field, ok := m.currentField()
	if !ok {
		lines = append(lines, "", m.theme.Subtitle.Render("All details captured."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines,
		"",
		m.theme.Subtitle.Render(fmt.Sprintf("Field %d of %d", m.state.FieldIndex+1, len(info.RequiredFields))),
		m.theme.Prompt.Render(field.VoicePrompt),
		m.input.View(),
	)
	return strings.Join(lines, "\n")
}

func (m WizardModel) renderReview() string {
	header := m.theme.Subtitle.Render("Review the drafted addendum")
	if m.state.IsProcessing {
		return header + "\n\n" + m.spinner.View() + " Drafting addendum..."
	}
	return header + "\n" + m.theme.RoundedBox.Render(m.preview.View())
}

func (m WizardModel) renderConfirm() string {
	info, _ := m.selectedInfo()

	lines := []string{
		m.theme.Subtitle.Render("Ready to submit"),
		m.theme.Bold.Render(fmt.Sprintf("%s %s", info.Icon, info.Label)),
	}
	for _, f := range info.RequiredFields {
		if v, ok := m.state.Details[f.Key]; ok && !v.IsEmpty() {
			lines = append(lines, m.theme.Subtitle.Render("  "+f.Label+": ")+m.theme.Normal.Render(v.String()))
		}
	}

	if m.state.IsProcessing {
		lines = append(lines, "", m.spinner.View()+" Submitting...")
	}
	return strings.Join(lines, "\n")
}

func (m WizardModel) renderStatus() string {
	var lines []string

	if m.state.Error != "" {
		msg := "✗ " + m.state.Error
		if m.canRetry() {
			msg += "  (ctrl+r to retry)"
		}
		lines = append(lines, m.theme.StatusError.Render(msg))
	}
	if m.err != nil {
		lines = append(lines, m.theme.StatusError.Render("✗ "+m.err.Error()))
	}
	if m.notice != "" {
		lines = append(lines, m.theme.StatusWarning.Render(m.notice))
	}

	if ch := m.session.Voice(); ch != nil {
		if ch.Listening() {
			lines = append(lines, m.theme.Listening.Render("● listening"))
		}
		if err := ch.Err(); err != nil {
			lines = append(lines, m.theme.StatusWarning.Render("voice: "+err.Error()))
		}
	}
	if m.state.Transcript != "" {
		lines = append(lines, m.theme.Transcript.Render(fmt.Sprintf("“%s”", m.state.Transcript)))
	}

	return strings.Join(lines, "\n")
}

// canRetry reports whether the failed unit can be run again from this step.
func (m WizardModel) canRetry() bool {
	switch m.state.Step {
	case wizard.StepConfirm:
		return true
	case wizard.StepDetails:
		info, ok := m.selectedInfo()
		if !ok {
			return false
		}
		for _, f := range info.RequiredFields {
			if v, has := m.state.Details[f.Key]; f.Required && (!has || v.IsEmpty()) {
				return false
			}
		}
		return true
	}
	return false
}

func (m WizardModel) stepKeys() stepHelp {
	k := m.keymap
	var short []key.Binding

	switch m.state.Step {
	case wizard.StepTypeSelection:
		short = []key.Binding{k.Up, k.Down, k.Select}
	case wizard.StepDetails:
		short = []key.Binding{k.Select, k.Back}
	case wizard.StepReview:
		short = []key.Binding{k.Confirm, k.Edit, k.PageDown}
	case wizard.StepConfirm:
		short = []key.Binding{k.Submit, k.Back}
	}
	if m.state.Error != "" && m.canRetry() {
		short = append(short, k.Retry)
	}
	short = append(short, k.Voice, k.Cancel)
	if m.state.Step != wizard.StepDetails {
		short = append(short, k.Help)
	}

	return stepHelp{short: short, full: k.FullHelp()}
}
