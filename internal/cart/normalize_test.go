package cart

import (
	"testing"
	"time"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	line, err := Normalize(Line{ProductID: "  p1  ", DisplayName: " Shirt ", Size: " M "}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.ProductID != "p1" || line.DisplayName != "Shirt" || line.Size != "M" {
		t.Fatalf("expected trimmed fields, got %+v", line)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", line.Quantity)
	}
	if !line.AddedAt.Equal(now) {
		t.Fatalf("expected addedAt stamp, got %v", line.AddedAt)
	}
}

func TestNormalizeClampsNegativePrice(t *testing.T) {
	t.Parallel()

	line, err := Normalize(Line{ProductID: "p1", UnitPrice: decimal.NewFromInt(-5)}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !line.UnitPrice.IsZero() {
		t.Fatalf("expected price clamped to zero, got %s", line.UnitPrice)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	added := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	line, err := Normalize(Line{ProductID: "p1", Quantity: 4, UnitPrice: decimal.NewFromFloat(9.5), AddedAt: added}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Quantity != 4 || !line.AddedAt.Equal(added) {
		t.Fatalf("explicit values must survive, got %+v", line)
	}
	if !line.UnitPrice.Equal(decimal.NewFromFloat(9.5)) {
		t.Fatalf("unexpected price %s", line.UnitPrice)
	}
}

func TestNormalizeRejectsBlankProductID(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Line{ProductID: "   "}, time.Now())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLineKeyComposition(t *testing.T) {
	t.Parallel()

	if got := LineKey("p1", "M"); got != "p1::M" {
		t.Fatalf("unexpected composite key %q", got)
	}
	if got := LineKey("p1", ""); got != "p1" {
		t.Fatalf("size-less key should be the product id, got %q", got)
	}
}
