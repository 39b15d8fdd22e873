package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is how normalized dates are rendered in documents.
const DateLayout = "January 2, 2006"

// FieldValue is a captured field value. Kind selects which of the variant
// fields is meaningful; Raw always carries the text the value came from.
type FieldValue struct {
	Date   *time.Time
	Kind   FieldType
	Raw    string
	Text   string
	Amount decimal.Decimal
	Number float64
}

// TextValue builds a text variant.
func TextValue(s string) FieldValue {
	return FieldValue{Kind: FieldText, Raw: s, Text: s}
}

// CurrencyValue builds a currency variant.
func CurrencyValue(amount decimal.Decimal, raw string) FieldValue {
	return FieldValue{Kind: FieldCurrency, Raw: raw, Amount: amount}
}

// NumberValue builds a number variant.
func NumberValue(n float64, raw string) FieldValue {
	return FieldValue{Kind: FieldNumber, Raw: raw, Number: n}
}

// DateValue builds a date variant. A nil date means the raw text could not be
// normalized to a calendar date.
func DateValue(date *time.Time, raw string) FieldValue {
	v := FieldValue{Kind: FieldDate, Raw: raw}
	if date != nil {
		d := *date
		v.Date = &d
	}
	return v
}

// Matches reports whether the value is the variant a field of type t needs.
func (v FieldValue) Matches(t FieldType) bool {
	return v.Kind == t
}

// IsEmpty reports whether the value carries no usable content.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case FieldText:
		return strings.TrimSpace(v.Text) == ""
	case FieldDate:
		return v.Date == nil && strings.TrimSpace(v.Raw) == ""
	case FieldCurrency, FieldNumber:
		return false
	default:
		return true
	}
}

// Normalized reports whether a date variant resolved to a calendar date.
func (v FieldValue) Normalized() bool {
	return v.Kind == FieldDate && v.Date != nil
}

// String renders the value for documents and display.
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldCurrency:
		return FormatCurrency(v.Amount)
	case FieldNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case FieldDate:
		if v.Date != nil {
			return v.Date.Format(DateLayout)
		}
		return v.Raw
	default:
		return v.Text
	}
}

// FormatCurrency renders an amount as US dollars with thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%s$%s.%s", sign, b.String(), frac)
}

type fieldValueJSON struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Number *float64         `json:"number,omitempty"`
	Date   *string          `json:"date,omitempty"`
	Kind   FieldType        `json:"kind"`
	Raw    string           `json:"raw"`
	Text   string           `json:"text,omitempty"`
}

// MarshalJSON writes only the active variant.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	out := fieldValueJSON{Kind: v.Kind, Raw: v.Raw}
	switch v.Kind {
	case FieldCurrency:
		amount := v.Amount
		out.Amount = &amount
	case FieldNumber:
		n := v.Number
		out.Number = &n
	case FieldDate:
		if v.Date != nil {
			s := v.Date.Format(time.DateOnly)
			out.Date = &s
		}
	default:
		out.Text = v.Text
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a value written by MarshalJSON.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var in fieldValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.Kind {
	case FieldCurrency:
		amount := decimal.Zero
		if in.Amount != nil {
			amount = *in.Amount
		}
		*v = CurrencyValue(amount, in.Raw)
	case FieldNumber:
		var n float64
		if in.Number != nil {
			n = *in.Number
		}
		*v = NumberValue(n, in.Raw)
	case FieldDate:
		var date *time.Time
		if in.Date != nil {
			parsed, err := time.Parse(time.DateOnly, *in.Date)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", *in.Date, err)
			}
			date = &parsed
		}
		*v = DateValue(date, in.Raw)
	case FieldText:
		*v = FieldValue{Kind: FieldText, Raw: in.Raw, Text: in.Text}
	default:
		return fmt.Errorf("unknown field value kind %q", in.Kind)
	}
	return nil
}

// CloneDetails copies a details map.
func CloneDetails(details map[string]FieldValue) map[string]FieldValue {
	out := make(map[string]FieldValue, len(details))
	for k, v := range details {
		if v.Date != nil {
			d := *v.Date
			v.Date = &d
		}
		out[k] = v
	}
	return out
}
