package interpret

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/shopspring/decimal"
)

var (
	currencyRun   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	nonNumberRune = regexp.MustCompile(`[^\d.+\-]`)
)

// ParseFieldValue interprets an utterance as a value of the given field type.
// When a currency or number cannot be read, the raw utterance comes back as a
// text variant so the caller can re-prompt. ref anchors relative dates.
func ParseFieldValue(utterance string, fieldType model.FieldType, ref time.Time) model.FieldValue {
	switch fieldType {
	case model.FieldCurrency:
		return parseCurrency(utterance)
	case model.FieldNumber:
		return parseNumber(utterance)
	case model.FieldDate:
		if date, ok := NormalizeDate(utterance, ref); ok {
			return model.DateValue(&date, utterance)
		}
		return model.DateValue(nil, utterance)
	default:
		return model.TextValue(strings.TrimSpace(utterance))
	}
}

func parseCurrency(utterance string) model.FieldValue {
	run := currencyRun.FindString(utterance)
	if run == "" {
		return model.TextValue(utterance)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(run, ",", ""))
	if err != nil {
		return model.TextValue(utterance)
	}

	return model.CurrencyValue(amount, utterance)
}

func parseNumber(utterance string) model.FieldValue {
	cleaned := nonNumberRune.ReplaceAllString(utterance, "")

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return model.TextValue(utterance)
	}

	return model.NumberValue(n, utterance)
}
