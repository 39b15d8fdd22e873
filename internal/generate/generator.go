// Package generate produces addendum document text from a selected type and
// its captured field values.
package generate

import (
	"context"
	"fmt"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
)

// Generator produces the preview document body for an addendum.
type Generator interface {
	Generate(ctx context.Context, info model.AddendumTypeInfo, details map[string]model.FieldValue) (string, error)
}

// Boilerplate closes every generated addendum.
const Boilerplate = "All other terms and conditions of the Purchase Agreement remain unchanged and in full force and effect."

func requireType(info model.AddendumTypeInfo) error {
	if info.Type == "" {
		return fmt.Errorf("%w: %w", common.ErrGenerationFailed, common.ErrNoSelectedType)
	}
	return nil
}
