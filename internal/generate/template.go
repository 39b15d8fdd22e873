package generate

import (
	"context"
	"strings"

	"github.com/Veraticus/amendment-desk/internal/model"
)

// TemplateGenerator renders addenda from a fixed template. It has no
// dependencies and never fails for a selected type.
type TemplateGenerator struct{}

// Generate implements Generator.
func (TemplateGenerator) Generate(_ context.Context, info model.AddendumTypeInfo, details map[string]model.FieldValue) (string, error) {
	return Render(info, details)
}

// Render builds the document: a header from the type label, one
// "Label: value" line per required field that has a value, and the closing
// boilerplate.
func Render(info model.AddendumTypeInfo, details map[string]model.FieldValue) (string, error) {
	if err := requireType(info); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(Header(info))
	b.WriteString("\n\n")

	for _, field := range info.RequiredFields {
		value, ok := details[field.Key]
		if !ok || value.IsEmpty() {
			continue
		}
		b.WriteString(field.Label)
		b.WriteString(": ")
		b.WriteString(value.String())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(Boilerplate)

	return b.String(), nil
}

// Header is the document title for a type.
func Header(info model.AddendumTypeInfo) string {
	header := strings.ToUpper(strings.TrimSpace(info.Label))
	if !strings.HasSuffix(header, "ADDENDUM") {
		header += " ADDENDUM"
	}
	return header
}
