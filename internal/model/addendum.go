// Package model defines the addendum, contract, and amendment types shared
// across the application.
package model

import "fmt"

// AddendumType is the catalog tag of an addendum kind.
type AddendumType string

const (
	AddendumClosingExtension    AddendumType = "closing_extension"
	AddendumPriceReduction      AddendumType = "price_reduction"
	AddendumRepairRequest       AddendumType = "repair_request"
	AddendumRepairCredit        AddendumType = "repair_credit"
	AddendumInspectionExtension AddendumType = "inspection_extension"
	AddendumFinancingExtension  AddendumType = "financing_extension"
	AddendumAppraisalGap        AddendumType = "appraisal_gap"
	AddendumEarnestMoney        AddendumType = "earnest_money"
	AddendumSellerConcession    AddendumType = "seller_concession"
	AddendumPossessionDate      AddendumType = "possession_date"
	AddendumGeneral             AddendumType = "general"
)

// FieldType is the declared value type of an addendum field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldCurrency FieldType = "currency"
	FieldDate     FieldType = "date"
	FieldNumber   FieldType = "number"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldCurrency, FieldDate, FieldNumber:
		return true
	}
	return false
}

// AddendumField is one value the wizard collects for an addendum type.
type AddendumField struct {
	Key         string    `yaml:"key"`
	Label       string    `yaml:"label"`
	VoicePrompt string    `yaml:"voice_prompt"`
	Type        FieldType `yaml:"type"`
	Placeholder string    `yaml:"placeholder"`
	Required    bool      `yaml:"required"`
}

// AddendumTypeInfo is an immutable catalog entry.
type AddendumTypeInfo struct {
	Type           AddendumType    `yaml:"type"`
	Label          string          `yaml:"label"`
	Icon           string          `yaml:"icon"`
	Description    string          `yaml:"description"`
	RequiredFields []AddendumField `yaml:"required_fields"`
	CommonlyUsed   bool            `yaml:"commonly_used"`
}

// Field returns the field with the given key.
func (i AddendumTypeInfo) Field(key string) (AddendumField, bool) {
	for _, f := range i.RequiredFields {
		if f.Key == key {
			return f, true
		}
	}
	return AddendumField{}, false
}

// Clone returns a copy that shares no slices with i.
func (i AddendumTypeInfo) Clone() AddendumTypeInfo {
	out := i
	out.RequiredFields = make([]AddendumField, len(i.RequiredFields))
	copy(out.RequiredFields, i.RequiredFields)
	return out
}

// Validate checks the entry's internal consistency.
func (i AddendumTypeInfo) Validate() error {
	if i.Type == "" {
		return fmt.Errorf("addendum type tag is required")
	}
	if i.Label == "" {
		return fmt.Errorf("addendum type %s: label is required", i.Type)
	}
	if len(i.RequiredFields) == 0 {
		return fmt.Errorf("addendum type %s: at least one field is required", i.Type)
	}

	seen := make(map[string]bool, len(i.RequiredFields))
	for idx, f := range i.RequiredFields {
		if f.Key == "" {
			return fmt.Errorf("addendum type %s: field %d has no key", i.Type, idx)
		}
		if seen[f.Key] {
			return fmt.Errorf("addendum type %s: duplicate field key %q", i.Type, f.Key)
		}
		seen[f.Key] = true
		if !f.Type.Valid() {
			return fmt.Errorf("addendum type %s: field %q has unknown type %q", i.Type, f.Key, f.Type)
		}
	}
	return nil
}

// CompletedAddendum is handed to the completion handler after a successful
// submission.
type CompletedAddendum struct {
	Details          map[string]FieldValue `json:"details"`
	AddendumType     AddendumType          `json:"addendum_type"`
	GeneratedContent string                `json:"generated_content"`
}
