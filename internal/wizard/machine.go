package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/interpret"
	"github.com/Veraticus/amendment-desk/internal/model"
)

// EffectKind is work the owner of a Machine must carry out after a
// transition.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectGenerate
	EffectSubmit
	EffectClose
)

func (k EffectKind) String() string {
	switch k {
	case EffectGenerate:
		return "generate"
	case EffectSubmit:
		return "submit"
	case EffectClose:
		return "close"
	default:
		return "none"
	}
}

// Effect describes an asynchronous unit to start. Its result must be reported
// back with the same Token.
type Effect struct {
	Details map[string]model.FieldValue
	Info    model.AddendumTypeInfo
	Content string
	Kind    EffectKind
	Token   uint64
}

// Result is the outcome of a trigger.
type Result struct {
	Reason  string
	Effect  Effect
	Ignored bool
}

func ignored(format string, args ...any) Result {
	return Result{Ignored: true, Reason: fmt.Sprintf(format, args...)}
}

// Machine is the wizard's transition core. It performs no I/O and starts no
// goroutines; callers run the returned effects. A Machine is not safe for
// concurrent use.
type Machine struct {
	catalog   *catalog.Catalog
	matcher   *interpret.TypeMatcher
	state     State
	nextToken uint64
	pending   uint64
}

// NewMachine creates a machine in the empty state.
func NewMachine(c *catalog.Catalog) *Machine {
	return &Machine{
		catalog: c,
		matcher: interpret.NewTypeMatcher(c, interpret.DefaultSynonyms()),
		state:   EmptyState(),
	}
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	return m.state.Clone()
}

// Info returns the catalog entry of the selected type.
func (m *Machine) Info() (model.AddendumTypeInfo, bool) {
	if !m.state.HasSelectedType() {
		return model.AddendumTypeInfo{}, false
	}
	return m.catalog.MustGetInfo(m.state.SelectedType), true
}

// CurrentField returns the field being captured in the details step.
func (m *Machine) CurrentField() (model.AddendumField, bool) {
	info, ok := m.Info()
	if !ok || m.state.Step != StepDetails {
		return model.AddendumField{}, false
	}
	if m.state.FieldIndex < 0 || m.state.FieldIndex >= len(info.RequiredFields) {
		return model.AddendumField{}, false
	}
	return info.RequiredFields[m.state.FieldIndex], true
}

// Reset empties the state and invalidates any in-flight unit.
func (m *Machine) Reset() {
	m.state = EmptyState()
	m.pending = 0
}

// ClearError drops a processing error message.
func (m *Machine) ClearError() {
	m.state.Error = ""
}

// SetTranscript records the latest voice segment for display.
func (m *Machine) SetTranscript(text string) {
	m.state.Transcript = text
}

func (m *Machine) busy(trigger string) (Result, bool) {
	if m.state.IsProcessing {
		return ignored("%s while processing", trigger), true
	}
	return Result{}, false
}

// SelectType chooses an addendum type. The type must exist in the catalog.
func (m *Machine) SelectType(t model.AddendumType) Result {
	if r, busy := m.busy("select type"); busy {
		return r
	}
	if m.state.Step != StepTypeSelection {
		return ignored("select type in step %s", m.state.Step)
	}

	// Unknown tags are a programming error.
	m.catalog.MustGetInfo(t)

	m.state.SelectedType = t
	m.state.Step = StepDetails
	m.state.FieldIndex = 0
	m.state.Details = map[string]model.FieldValue{}
	m.state.GeneratedContent = ""
	m.state.Error = ""
	return Result{}
}

// SelectTypeByUtterance matches free text against the catalog.
func (m *Machine) SelectTypeByUtterance(utterance string) Result {
	if m.state.Step != StepTypeSelection {
		return ignored("select type in step %s", m.state.Step)
	}
	t, ok := m.matcher.Match(utterance)
	if !ok {
		return ignored("no addendum type matches %q", utterance)
	}
	return m.SelectType(t)
}

// Capture stores a value for the current field. A value of the wrong variant,
// or an empty value for a required field, leaves the state unchanged.
func (m *Machine) Capture(v model.FieldValue) Result {
	if r, busy := m.busy("capture"); busy {
		return r
	}

	field, ok := m.CurrentField()
	if !ok {
		return ignored("capture in step %s", m.state.Step)
	}

	if v.Kind == model.FieldText {
		v = model.TextValue(strings.TrimSpace(v.Text))
	}

	if !v.Matches(field.Type) {
		return ignored("field %s wants %s, got %s", field.Key, field.Type, v.Kind)
	}

	if v.IsEmpty() {
		if field.Required {
			return ignored("field %s is required", field.Key)
		}
		delete(m.state.Details, field.Key)
	} else {
		m.state.Details[field.Key] = v
	}

	info, _ := m.Info()
	if m.state.FieldIndex+1 < len(info.RequiredFields) {
		m.state.FieldIndex++
		return Result{}
	}

	return m.startGeneration(info)
}

// CaptureUtterance parses text for the current field's type and captures it.
func (m *Machine) CaptureUtterance(utterance string, ref time.Time) Result {
	field, ok := m.CurrentField()
	if !ok {
		return ignored("capture in step %s", m.state.Step)
	}
	return m.Capture(interpret.ParseFieldValue(strings.TrimSpace(utterance), field.Type, ref))
}

func (m *Machine) startGeneration(info model.AddendumTypeInfo) Result {
	m.nextToken++
	m.pending = m.nextToken
	m.state.IsProcessing = true
	m.state.Error = ""

	return Result{Effect: Effect{
		Kind:    EffectGenerate,
		Token:   m.pending,
		Info:    info,
		Details: model.CloneDetails(m.state.Details),
	}}
}

// allCaptured reports whether every required field has a value.
func (m *Machine) allCaptured() bool {
	info, ok := m.Info()
	if !ok {
		return false
	}
	for _, f := range info.RequiredFields {
		if !f.Required {
			continue
		}
		if v, ok := m.state.Details[f.Key]; !ok || v.IsEmpty() {
			return false
		}
	}
	return true
}

// Back moves one step backwards.
func (m *Machine) Back() Result {
	if r, busy := m.busy("back"); busy {
		return r
	}

	switch m.state.Step {
	case StepDetails:
		if m.state.FieldIndex > 0 {
			m.state.FieldIndex--
			return Result{}
		}
		m.state.Step = StepTypeSelection
		m.state.SelectedType = ""
		m.state.Details = map[string]model.FieldValue{}
		m.state.GeneratedContent = ""
		m.state.Error = ""
		return Result{}
	case StepReview:
		return m.Edit()
	case StepConfirm:
		m.state.Step = StepReview
		m.state.Error = ""
		return Result{}
	default:
		return ignored("back in step %s", m.state.Step)
	}
}

// Confirm accepts the generated preview.
func (m *Machine) Confirm() Result {
	if r, busy := m.busy("confirm"); busy {
		return r
	}
	if m.state.Step != StepReview {
		return ignored("confirm in step %s", m.state.Step)
	}
	m.state.Step = StepConfirm
	return Result{}
}

// Edit returns from review to the details step at the same field.
func (m *Machine) Edit() Result {
	if r, busy := m.busy("edit"); busy {
		return r
	}
	if m.state.Step != StepReview {
		return ignored("edit in step %s", m.state.Step)
	}
	m.state.Step = StepDetails
	m.state.GeneratedContent = ""
	return Result{}
}

// Submit hands the addendum off for submission.
func (m *Machine) Submit() Result {
	if r, busy := m.busy("submit"); busy {
		return r
	}
	if m.state.Step != StepConfirm {
		return ignored("submit in step %s", m.state.Step)
	}

	info, _ := m.Info()
	m.nextToken++
	m.pending = m.nextToken
	m.state.IsProcessing = true
	m.state.Error = ""

	return Result{Effect: Effect{
		Kind:    EffectSubmit,
		Token:   m.pending,
		Info:    info,
		Details: model.CloneDetails(m.state.Details),
		Content: m.state.GeneratedContent,
	}}
}

// Retry re-runs the unit that last failed: generation in the details step
// once every field is captured, submission in the confirm step.
func (m *Machine) Retry() Result {
	if r, busy := m.busy("retry"); busy {
		return r
	}

	switch m.state.Step {
	case StepDetails:
		if !m.allCaptured() {
			return ignored("retry with fields missing")
		}
		info, _ := m.Info()
		return m.startGeneration(info)
	case StepConfirm:
		return m.Submit()
	default:
		return ignored("retry in step %s", m.state.Step)
	}
}

func (m *Machine) settle(token uint64, step Step) bool {
	if token == 0 || token != m.pending || !m.state.IsProcessing || m.state.Step != step {
		return false
	}
	m.pending = 0
	m.state.IsProcessing = false
	return true
}

// GenerationSucceeded applies a generation result.
func (m *Machine) GenerationSucceeded(token uint64, content string) Result {
	if !m.settle(token, StepDetails) {
		return ignored("stale generation result %d", token)
	}
	m.state.GeneratedContent = content
	m.state.Step = StepReview
	return Result{}
}

// GenerationFailed records a generation failure. Captured values survive.
func (m *Machine) GenerationFailed(token uint64, message string) Result {
	if !m.settle(token, StepDetails) {
		return ignored("stale generation result %d", token)
	}
	m.state.Error = message
	return Result{}
}

// SubmissionSucceeded returns the completed payload and resets the wizard.
// ok is false for stale results.
func (m *Machine) SubmissionSucceeded(token uint64) (model.CompletedAddendum, bool) {
	if !m.settle(token, StepConfirm) {
		return model.CompletedAddendum{}, false
	}

	payload := model.CompletedAddendum{
		AddendumType:     m.state.SelectedType,
		Details:          model.CloneDetails(m.state.Details),
		GeneratedContent: m.state.GeneratedContent,
	}
	m.Reset()
	return payload, true
}

// SubmissionFailed records a submission failure. The wizard stays in confirm.
func (m *Machine) SubmissionFailed(token uint64, message string) Result {
	if !m.settle(token, StepConfirm) {
		return ignored("stale submission result %d", token)
	}
	m.state.Error = message
	return Result{}
}

// HandleUtterance routes one final voice segment according to the current
// step. Commands are recognized only as whole utterances while capturing
// fields, so that a field value may contain command words.
func (m *Machine) HandleUtterance(utterance string, ref time.Time) Result {
	if r, busy := m.busy("utterance"); busy {
		return r
	}

	switch m.state.Step {
	case StepTypeSelection:
		if interpret.ParseCommand(utterance) == interpret.CommandCancel {
			return Result{Effect: Effect{Kind: EffectClose}}
		}
		return m.SelectTypeByUtterance(utterance)

	case StepDetails:
		switch interpret.ParseCommand(utterance) {
		case interpret.CommandCancel:
			return Result{Effect: Effect{Kind: EffectClose}}
		case interpret.CommandBack:
			return m.Back()
		}
		return m.CaptureUtterance(utterance, ref)

	case StepReview:
		switch interpret.FindCommand(utterance) {
		case interpret.CommandCancel:
			return Result{Effect: Effect{Kind: EffectClose}}
		case interpret.CommandConfirm:
			return m.Confirm()
		case interpret.CommandEdit, interpret.CommandBack:
			return m.Edit()
		}

	case StepConfirm:
		switch interpret.FindCommand(utterance) {
		case interpret.CommandCancel:
			return Result{Effect: Effect{Kind: EffectClose}}
		case interpret.CommandSubmit:
			return m.Submit()
		case interpret.CommandBack, interpret.CommandEdit:
			return m.Back()
		}
	}

	return ignored("no command in %q", utterance)
}
