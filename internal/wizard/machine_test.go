package wizard

import (
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/generate"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tuesday.
var ref = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func checkInvariants(t *testing.T, st State) {
	t.Helper()
	require.True(t, st.Step.Valid(), "invalid step %q", st.Step)
	if st.Step == StepTypeSelection {
		assert.False(t, st.HasSelectedType(), "type selected in type_selection")
	} else {
		assert.True(t, st.HasSelectedType(), "no type selected in %s", st.Step)
	}
}

func sampleValue(t *testing.T, f model.AddendumField) model.FieldValue {
	t.Helper()
	switch f.Type {
	case model.FieldCurrency:
		return model.CurrencyValue(decimal.NewFromInt(5000), "$5,000")
	case model.FieldNumber:
		return model.NumberValue(7, "7")
	case model.FieldDate:
		d := ref.AddDate(0, 0, 14)
		return model.DateValue(&d, "in two weeks")
	default:
		return model.TextValue("value for " + f.Key)
	}
}

func TestMachine_SelectType(t *testing.T) {
	m := NewMachine(catalog.Default())

	r := m.SelectType(model.AddendumClosingExtension)
	require.False(t, r.Ignored)

	st := m.State()
	checkInvariants(t, st)
	assert.Equal(t, StepDetails, st.Step)
	assert.Equal(t, model.AddendumClosingExtension, st.SelectedType)
	assert.Zero(t, st.FieldIndex)

	field, ok := m.CurrentField()
	require.True(t, ok)
	assert.Equal(t, "new_closing_date", field.Key)

	assert.True(t, m.SelectType(model.AddendumPriceReduction).Ignored, "select type outside type_selection")
}

func TestMachine_SelectUnknownTypePanics(t *testing.T) {
	m := NewMachine(catalog.Default())
	assert.Panics(t, func() { m.SelectType("time_machine") })
}

func TestMachine_SelectTypeByUtterance(t *testing.T) {
	m := NewMachine(catalog.Default())

	r := m.SelectTypeByUtterance("something about the weather")
	assert.True(t, r.Ignored)
	assert.Equal(t, StepTypeSelection, m.State().Step)
	assert.Empty(t, m.State().Error, "no match is not a processing error")

	r = m.SelectTypeByUtterance("I need a closing extension")
	assert.False(t, r.Ignored)
	assert.Equal(t, model.AddendumClosingExtension, m.State().SelectedType)
}

func TestMachine_TwoFieldCaptureReachesReview(t *testing.T) {
	c := catalog.Default()
	m := NewMachine(c)
	m.SelectType(model.AddendumClosingExtension)

	closing := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	r := m.Capture(model.DateValue(&closing, "April 15th"))
	require.False(t, r.Ignored)
	assert.Equal(t, EffectNone, r.Effect.Kind)

	st := m.State()
	assert.Equal(t, StepDetails, st.Step)
	assert.Equal(t, 1, st.FieldIndex)

	r = m.Capture(model.TextValue("Lender needs more time"))
	require.Equal(t, EffectGenerate, r.Effect.Kind)
	assert.True(t, m.State().IsProcessing)
	assert.Equal(t, StepDetails, m.State().Step)

	content, err := generate.Render(r.Effect.Info, r.Effect.Details)
	require.NoError(t, err)

	r = m.GenerationSucceeded(r.Effect.Token, content)
	require.False(t, r.Ignored)

	st = m.State()
	checkInvariants(t, st)
	assert.Equal(t, StepReview, st.Step)
	assert.False(t, st.IsProcessing)
	assert.Contains(t, st.GeneratedContent, "New Closing Date")
	assert.Contains(t, st.GeneratedContent, "Reason for Extension")
}

func TestMachine_FieldOrderInvariant(t *testing.T) {
	c := catalog.Default()

	for _, info := range c.ListAll() {
		t.Run(string(info.Type), func(t *testing.T) {
			m := NewMachine(c)
			m.SelectType(info.Type)

			var visited []string
			var last Result
			for i := 0; i < len(info.RequiredFields); i++ {
				st := m.State()
				require.Equal(t, StepDetails, st.Step, "left details after %d fields", i)
				checkInvariants(t, st)

				field, ok := m.CurrentField()
				require.True(t, ok)
				visited = append(visited, field.Key)

				last = m.Capture(sampleValue(t, field))
				require.False(t, last.Ignored, last.Reason)
			}

			want := make([]string, 0, len(info.RequiredFields))
			for _, f := range info.RequiredFields {
				want = append(want, f.Key)
			}
			assert.Equal(t, want, visited)

			require.Equal(t, EffectGenerate, last.Effect.Kind)
			assert.Len(t, last.Effect.Details, len(info.RequiredFields))

			m.GenerationSucceeded(last.Effect.Token, "content")
			assert.Equal(t, StepReview, m.State().Step)
		})
	}
}

func TestMachine_InputAmbiguityLeavesStateUnchanged(t *testing.T) {
	m := NewMachine(catalog.Default())
	m.SelectType(model.AddendumPriceReduction)
	before := m.State()

	tests := []struct {
		name  string
		value model.FieldValue
	}{
		{"text for currency field", model.TextValue("no idea")},
		{"date for currency field", model.DateValue(nil, "tomorrow")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := m.Capture(tt.value)
			assert.True(t, r.Ignored)
			assert.Equal(t, before, m.State())
			assert.Empty(t, m.State().Error)
		})
	}

	m.Capture(model.CurrencyValue(decimal.NewFromInt(400000), "$400,000"))
	r := m.Capture(model.TextValue("   "))
	assert.True(t, r.Ignored, "empty required text")
	assert.Equal(t, 1, m.State().FieldIndex)
}

func TestMachine_CaptureUtterance(t *testing.T) {
	m := NewMachine(catalog.Default())
	m.SelectType(model.AddendumPriceReduction)

	r := m.CaptureUtterance("twelve thousand five hundred dollars... actually $12,500.00", ref)
	require.False(t, r.Ignored)

	v := m.State().Details["new_purchase_price"]
	assert.Equal(t, model.FieldCurrency, v.Kind)
	assert.True(t, v.Amount.Equal(decimal.NewFromInt(12500)))

	r = m.CaptureUtterance("  appraisal came in low  ", ref)
	require.Equal(t, EffectGenerate, r.Effect.Kind)
	assert.Equal(t, "appraisal came in low", r.Effect.Details["reason"].Text)
}

func TestMachine_Back(t *testing.T) {
	m := NewMachine(catalog.Default())

	assert.True(t, m.Back().Ignored, "back in type_selection")

	m.SelectType(model.AddendumClosingExtension)
	m.Capture(sampleValue(t, model.AddendumField{Type: model.FieldDate}))
	require.Equal(t, 1, m.State().FieldIndex)

	m.Back()
	st := m.State()
	assert.Equal(t, StepDetails, st.Step)
	assert.Zero(t, st.FieldIndex)

	m.Back()
	st = m.State()
	checkInvariants(t, st)
	assert.Equal(t, StepTypeSelection, st.Step)
	assert.False(t, st.HasSelectedType())
	assert.Empty(t, st.Details)
}

func reachReview(t *testing.T, m *Machine) {
	t.Helper()
	m.SelectType(model.AddendumClosingExtension)
	m.Capture(sampleValue(t, model.AddendumField{Type: model.FieldDate}))
	r := m.Capture(model.TextValue("lender delay"))
	require.Equal(t, EffectGenerate, r.Effect.Kind)
	m.GenerationSucceeded(r.Effect.Token, "CLOSING EXTENSION ADDENDUM")
	require.Equal(t, StepReview, m.State().Step)
}

func TestMachine_ReviewAndConfirmNavigation(t *testing.T) {
	m := NewMachine(catalog.Default())
	reachReview(t, m)

	assert.True(t, m.Submit().Ignored, "submit from review")

	m.Edit()
	st := m.State()
	assert.Equal(t, StepDetails, st.Step)
	assert.Equal(t, 1, st.FieldIndex, "edit keeps the field index")

	r := m.Capture(model.TextValue("appraisal delay"))
	m.GenerationSucceeded(r.Effect.Token, "v2")
	require.Equal(t, StepReview, m.State().Step)

	m.Confirm()
	assert.Equal(t, StepConfirm, m.State().Step)

	m.Back()
	assert.Equal(t, StepReview, m.State().Step)

	m.Back()
	assert.Equal(t, StepDetails, m.State().Step, "back in review edits")
}

func TestMachine_TriggersIgnoredWhileProcessing(t *testing.T) {
	m := NewMachine(catalog.Default())
	m.SelectType(model.AddendumGeneral)
	r := m.Capture(model.TextValue("Buyer may install a fence"))
	require.Equal(t, EffectGenerate, r.Effect.Kind)

	before := m.State()
	for name, trigger := range map[string]func() Result{
		"back":    m.Back,
		"retry":   m.Retry,
		"confirm": m.Confirm,
		"capture": func() Result { return m.Capture(model.TextValue("x")) },
		"voice":   func() Result { return m.HandleUtterance("go back", ref) },
	} {
		assert.True(t, trigger().Ignored, name)
	}
	assert.Equal(t, before, m.State())
}

func TestMachine_GenerationFailureIsRetryable(t *testing.T) {
	m := NewMachine(catalog.Default())
	m.SelectType(model.AddendumClosingExtension)
	m.Capture(sampleValue(t, model.AddendumField{Type: model.FieldDate}))
	first := m.Capture(model.TextValue("lender delay"))

	m.GenerationFailed(first.Effect.Token, "Could not generate the addendum. Try again.")

	st := m.State()
	checkInvariants(t, st)
	assert.Equal(t, StepDetails, st.Step)
	assert.False(t, st.IsProcessing)
	assert.Equal(t, "Could not generate the addendum. Try again.", st.Error)
	assert.Len(t, st.Details, 2)

	retry := m.Retry()
	require.Equal(t, EffectGenerate, retry.Effect.Kind)
	assert.NotEqual(t, first.Effect.Token, retry.Effect.Token)
	assert.Empty(t, m.State().Error)

	assert.True(t, m.GenerationSucceeded(first.Effect.Token, "late").Ignored)
	assert.False(t, m.GenerationSucceeded(retry.Effect.Token, "fresh").Ignored)
	assert.Equal(t, "fresh", m.State().GeneratedContent)
}

func TestMachine_RetryNeedsAllFields(t *testing.T) {
	m := NewMachine(catalog.Default())
	m.SelectType(model.AddendumClosingExtension)

	assert.True(t, m.Retry().Ignored)
}

func TestMachine_ResetDiscardsLateResults(t *testing.T) {
	m := NewMachine(catalog.Default())
	m.SelectType(model.AddendumGeneral)
	r := m.Capture(model.TextValue("terms"))

	m.Reset()
	assert.True(t, m.GenerationSucceeded(r.Effect.Token, "late").Ignored)
	assert.True(t, m.GenerationFailed(r.Effect.Token, "late").Ignored)

	assert.Equal(t, EmptyState(), m.State())
}

func TestMachine_Submission(t *testing.T) {
	m := NewMachine(catalog.Default())
	reachReview(t, m)
	m.Confirm()

	first := m.Submit()
	require.Equal(t, EffectSubmit, first.Effect.Kind)
	assert.Equal(t, "CLOSING EXTENSION ADDENDUM", first.Effect.Content)

	m.SubmissionFailed(first.Effect.Token, "Could not submit the addendum. Try again.")
	st := m.State()
	assert.Equal(t, StepConfirm, st.Step)
	assert.NotEmpty(t, st.Error)
	assert.Len(t, st.Details, 2)

	retry := m.Retry()
	require.Equal(t, EffectSubmit, retry.Effect.Kind)

	payload, ok := m.SubmissionSucceeded(retry.Effect.Token)
	require.True(t, ok)
	assert.Equal(t, model.AddendumClosingExtension, payload.AddendumType)
	assert.Equal(t, "CLOSING EXTENSION ADDENDUM", payload.GeneratedContent)
	assert.Len(t, payload.Details, 2)
	assert.Equal(t, EmptyState(), m.State())

	_, ok = m.SubmissionSucceeded(retry.Effect.Token)
	assert.False(t, ok, "a submission completes once")
}

func TestMachine_HandleUtterance(t *testing.T) {
	m := NewMachine(catalog.Default())

	steps := []struct {
		utterance  string
		wantStep   Step
		wantEffect EffectKind
		wantIndex  int
	}{
		{"um, let me think", StepTypeSelection, EffectNone, 0},
		{"I need a closing extension", StepDetails, EffectNone, 0},
		{"next friday", StepDetails, EffectNone, 1},
		{"go back", StepDetails, EffectNone, 0},
		{"next friday", StepDetails, EffectNone, 1},
		{"buyer wants to cancel the appraisal and go back to lender", StepDetails, EffectGenerate, 1},
	}

	var last Result
	for _, s := range steps {
		last = m.HandleUtterance(s.utterance, ref)
		st := m.State()
		checkInvariants(t, st)
		assert.Equal(t, s.wantStep, st.Step, s.utterance)
		assert.Equal(t, s.wantEffect, last.Effect.Kind, s.utterance)
		assert.Equal(t, s.wantIndex, st.FieldIndex, s.utterance)
	}

	closing := m.State().Details["new_closing_date"]
	assert.Equal(t, "March 13, 2026", closing.String())

	m.GenerationSucceeded(last.Effect.Token, "draft")

	assert.True(t, m.HandleUtterance("hmm", ref).Ignored)
	m.HandleUtterance("yes that looks good", ref)
	assert.Equal(t, StepConfirm, m.State().Step)

	m.HandleUtterance("wait go back", ref)
	assert.Equal(t, StepReview, m.State().Step)

	m.HandleUtterance("approve", ref)
	r := m.HandleUtterance("ok send it", ref)
	assert.Equal(t, EffectSubmit, r.Effect.Kind)
}

func TestMachine_HandleUtteranceCancel(t *testing.T) {
	for _, step := range []func(m *Machine){
		func(*Machine) {},
		func(m *Machine) { m.SelectType(model.AddendumGeneral) },
		func(m *Machine) { reachReview(t, m) },
	} {
		m := NewMachine(catalog.Default())
		step(m)
		assert.Equal(t, EffectClose, m.HandleUtterance("cancel", ref).Effect.Kind)
	}
}
