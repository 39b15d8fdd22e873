package interpret

import (
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func TestParseFieldValue_Currency(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      string
		wantKind  model.FieldType
	}{
		{
			name:      "self correction keeps first numeric run",
			utterance: "twelve thousand five hundred dollars... actually $12,500.00",
			want:      "12500",
			wantKind:  model.FieldCurrency,
		},
		{
			name:      "thousands separators",
			utterance: "$450,000",
			want:      "450000",
			wantKind:  model.FieldCurrency,
		},
		{
			name:      "cents",
			utterance: "make it 2500.75 even",
			want:      "2500.75",
			wantKind:  model.FieldCurrency,
		},
		{
			name:      "words only",
			utterance: "no idea yet",
			wantKind:  model.FieldText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFieldValue(tt.utterance, model.FieldCurrency, testRef)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.utterance, got.Raw)
			if tt.wantKind == model.FieldCurrency {
				assert.True(t, got.Amount.Equal(decimal.RequireFromString(tt.want)),
					"amount %s, want %s", got.Amount, tt.want)
			} else {
				assert.Equal(t, tt.utterance, got.Text)
			}
		})
	}
}

func TestParseFieldValue_Number(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      float64
		wantKind  model.FieldType
	}{
		{"digits with words", "about 5 days", 5, model.FieldNumber},
		{"negative decimal", "-3.5", -3.5, model.FieldNumber},
		{"spoken number", "ten", 0, model.FieldText},
		{"two decimal points", "1.2.3", 0, model.FieldText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFieldValue(tt.utterance, model.FieldNumber, testRef)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.utterance, got.Raw)
			if tt.wantKind == model.FieldNumber {
				assert.InDelta(t, tt.want, got.Number, 1e-9)
			}
		})
	}
}

func TestParseFieldValue_Text(t *testing.T) {
	got := ParseFieldValue("  buyer needs more time  ", model.FieldText, testRef)

	assert.Equal(t, model.FieldText, got.Kind)
	assert.Equal(t, "buyer needs more time", got.Text)
}

func TestParseFieldValue_Date(t *testing.T) {
	got := ParseFieldValue("tomorrow", model.FieldDate, testRef)
	require.True(t, got.Normalized())
	assert.Equal(t, "March 11, 2026", got.String())
	assert.Equal(t, "tomorrow", got.Raw)

	raw := ParseFieldValue("as soon as possible", model.FieldDate, testRef)
	assert.Equal(t, model.FieldDate, raw.Kind)
	assert.False(t, raw.Normalized())
	assert.Equal(t, "as soon as possible", raw.String())

	for _, misparse := range []string{"3/4/5/6", "2026"} {
		v := ParseFieldValue(misparse, model.FieldDate, testRef)
		assert.False(t, v.Normalized(), misparse)
		assert.Equal(t, misparse, v.String())
	}
}

func TestParseFieldValue_Deterministic(t *testing.T) {
	for _, ft := range []model.FieldType{model.FieldText, model.FieldCurrency, model.FieldNumber, model.FieldDate} {
		utterance := "in 2 weeks, around $1,200"
		first := ParseFieldValue(utterance, ft, testRef)
		second := ParseFieldValue(utterance, ft, testRef)
		assert.Equal(t, first, second, "field type %s", ft)
	}
}
