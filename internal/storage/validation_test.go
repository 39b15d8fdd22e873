package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNilContext)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "abc", false},
		{"empty", "", true},
		{"whitespace", " \t\n", true},
		{"padded", "  a  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.input, "param")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.ErrorContains(t, err, "param")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAddendum(t *testing.T) {
	valid := model.CompletedAddendum{AddendumType: model.AddendumGeneral, GeneratedContent: "GENERAL ADDENDUM"}

	tests := []struct {
		name     string
		addendum model.CompletedAddendum
		title    string
		wantErr  bool
	}{
		{"valid", valid, "General Addendum", false},
		{"missing type", model.CompletedAddendum{GeneratedContent: "x"}, "t", true},
		{"missing title", valid, "", true},
		{"missing content", model.CompletedAddendum{AddendumType: model.AddendumGeneral}, "t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddendum(tt.addendum, tt.title)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmendment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNewContract(t *testing.T) {
	assert.NoError(t, validateNewContract(service.NewContract{KeyTerms: model.KeyTerms{
		PropertyAddress: "1 Main St",
		PurchasePrice:   decimal.NewFromInt(1),
	}}))
	assert.ErrorIs(t, validateNewContract(service.NewContract{}), ErrInvalidContract)
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []model.AmendmentStatus{
		model.AmendmentDraft,
		model.AmendmentPendingReview,
		model.AmendmentPendingSignature,
		model.AmendmentApproved,
		model.AmendmentRejected,
	} {
		assert.NoError(t, validateStatus(s), s)
	}
	assert.ErrorIs(t, validateStatus("archived"), ErrInvalidStatus)
}
