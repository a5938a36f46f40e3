package cart

import (
	"strings"
	"time"

	"github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Normalize is the single coercion seam between loose caller payloads and the
// strict Line shape. Every write path goes through it, so the stores only ever
// see well-formed lines: quantity at least 1, a non-negative price, and an
// addedAt stamp.
func Normalize(candidate Line, now time.Time) (Line, error) {
	candidate.ProductID = strings.TrimSpace(candidate.ProductID)
	if candidate.ProductID == "" {
		return Line{}, errors.New(errors.CodeValidation, "product id is required")
	}

	candidate.DisplayName = strings.TrimSpace(candidate.DisplayName)
	candidate.Size = strings.TrimSpace(candidate.Size)
	candidate.SchoolName = strings.TrimSpace(candidate.SchoolName)
	candidate.ImageURL = strings.TrimSpace(candidate.ImageURL)

	if candidate.Quantity < 1 {
		candidate.Quantity = 1
	}
	if candidate.UnitPrice.IsNegative() {
		candidate.UnitPrice = decimal.Zero
	}
	if candidate.AddedAt.IsZero() {
		candidate.AddedAt = now
	}
	return candidate, nil
}
