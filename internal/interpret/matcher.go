// Package interpret turns free-form utterances into addendum types, field
// values, and wizard commands. Everything here is pure: identical input gives
// identical output and arguments are never modified.
package interpret

import (
	"strings"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/model"
)

// Synonym maps a spoken phrase to an addendum type.
type Synonym struct {
	Phrase string
	Type   model.AddendumType
}

var defaultSynonyms = []Synonym{
	{"extend closing", model.AddendumClosingExtension},
	{"extend the closing", model.AddendumClosingExtension},
	{"push closing", model.AddendumClosingExtension},
	{"push back closing", model.AddendumClosingExtension},
	{"push back the closing", model.AddendumClosingExtension},
	{"delay closing", model.AddendumClosingExtension},
	{"delay the closing", model.AddendumClosingExtension},
	{"move closing", model.AddendumClosingExtension},
	{"move the closing", model.AddendumClosingExtension},
	{"closing date", model.AddendumClosingExtension},

	{"lower price", model.AddendumPriceReduction},
	{"lower the price", model.AddendumPriceReduction},
	{"reduce price", model.AddendumPriceReduction},
	{"reduce the price", model.AddendumPriceReduction},
	{"drop the price", model.AddendumPriceReduction},
	{"price drop", model.AddendumPriceReduction},
	{"price cut", model.AddendumPriceReduction},
	{"cut the price", model.AddendumPriceReduction},

	{"make repairs", model.AddendumRepairRequest},
	{"complete repairs", model.AddendumRepairRequest},
	{"fix the", model.AddendumRepairRequest},
	{"needs fixing", model.AddendumRepairRequest},

	{"credit for repairs", model.AddendumRepairCredit},
	{"credit instead of repairs", model.AddendumRepairCredit},
	{"repair allowance", model.AddendumRepairCredit},

	{"inspection", model.AddendumInspectionExtension},
	{"more time to inspect", model.AddendumInspectionExtension},

	{"financing", model.AddendumFinancingExtension},
	{"loan approval", model.AddendumFinancingExtension},
	{"mortgage", model.AddendumFinancingExtension},

	{"appraisal gap", model.AddendumAppraisalGap},
	{"appraised low", model.AddendumAppraisalGap},
	{"appraised under", model.AddendumAppraisalGap},

	{"earnest", model.AddendumEarnestMoney},
	{"deposit", model.AddendumEarnestMoney},

	{"concession", model.AddendumSellerConcession},
	{"closing costs", model.AddendumSellerConcession},

	{"possession", model.AddendumPossessionDate},
	{"move in", model.AddendumPossessionDate},
	{"move-in", model.AddendumPossessionDate},
	{"rent back", model.AddendumPossessionDate},
	{"rent-back", model.AddendumPossessionDate},

	{"something else", model.AddendumGeneral},
	{"other change", model.AddendumGeneral},
	{"custom", model.AddendumGeneral},
}

// DefaultSynonyms returns a copy of the built-in synonym table.
func DefaultSynonyms() []Synonym {
	out := make([]Synonym, len(defaultSynonyms))
	copy(out, defaultSynonyms)
	return out
}

// TypeMatcher matches utterances against a catalog.
type TypeMatcher struct {
	synonyms map[model.AddendumType][]string
	entries  []matchEntry
}

type matchEntry struct {
	typ   model.AddendumType
	label string
	words []string
}

// NewTypeMatcher creates a matcher over the catalog's types in declared order.
func NewTypeMatcher(c *catalog.Catalog, synonyms []Synonym) *TypeMatcher {
	m := &TypeMatcher{
		synonyms: make(map[model.AddendumType][]string),
	}

	for _, info := range c.ListAll() {
		label := strings.ToLower(info.Label)
		m.entries = append(m.entries, matchEntry{
			typ:   info.Type,
			label: label,
			words: strings.Fields(label),
		})
	}

	for _, s := range synonyms {
		m.synonyms[s.Type] = append(m.synonyms[s.Type], strings.ToLower(s.Phrase))
	}

	return m
}

// Match returns the first catalog type the utterance refers to.
func (m *TypeMatcher) Match(utterance string) (model.AddendumType, bool) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return "", false
	}

	for _, entry := range m.entries {
		if m.matchesEntry(text, entry) {
			return entry.typ, true
		}
	}

	return "", false
}

func (m *TypeMatcher) matchesEntry(text string, entry matchEntry) bool {
	if strings.Contains(text, entry.label) {
		return true
	}

	if len(entry.words) > 0 && containsAll(text, entry.words) {
		return true
	}

	for _, phrase := range m.synonyms[entry.typ] {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	return false
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// MatchAddendumType matches an utterance using the built-in synonym table.
func MatchAddendumType(c *catalog.Catalog, utterance string) (model.AddendumType, bool) {
	return NewTypeMatcher(c, defaultSynonyms).Match(utterance)
}
