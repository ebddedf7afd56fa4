package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidDraft(t *testing.T) {
	result := Validate(validDraft())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	// An empty draft violates every check; none of them short-circuit.
	result := Validate(InvoiceDraft{})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "project id is required")
	assert.Contains(t, result.Errors, "project title is required")
	assert.Contains(t, result.Errors, "billed-to name is required")
	assert.Contains(t, result.Errors, "at least one item is required")
	// Empty draft has consistent (zero) totals, so no mismatch errors.
	assert.Len(t, result.Errors, 4)
}

func TestValidate_ItemViolations(t *testing.T) {
	draft := validDraft()
	draft.Items = append(draft.Items, ItemDraft{
		Description: "",
		Quantity:    decimal.Zero,
		Rate:        decimal.NewFromInt(-1),
		Amount:      decimal.NewFromInt(-1),
	})
	// Keep totals consistent with the extra (negative) amount out of scope:
	// the mismatch errors are expected too, but item errors must be indexed.
	result := Validate(draft)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "item 2: description is required")
	assert.Contains(t, result.Errors, "item 2: quantity must be greater than zero")
	assert.Contains(t, result.Errors, "item 2: rate cannot be negative")
	assert.Contains(t, result.Errors, "item 2: amount cannot be negative")
}

func TestValidate_ItemAmountMustMatchQuantityTimesRate(t *testing.T) {
	draft := validDraft()
	// 2 x 500000 billed as 999000: every other field stays consistent with
	// the inflated amount so only the line check fires.
	draft.Items[0].Amount = decimal.NewFromInt(999000)
	draft.Subtotal = decimal.NewFromInt(999000)
	draft.Total = TotalOf(draft.Subtotal, draft.TaxPercent)

	result := Validate(draft)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "item 1: amount 999000.00 does not match quantity x rate 1000000.00")

	t.Run("tolerance absorbs rounding on the line", func(t *testing.T) {
		draft := validDraft()
		draft.Items[0].Amount = decimal.NewFromFloat(1000000.009)
		draft.Subtotal = decimal.NewFromFloat(1000000.009)
		draft.Total = TotalOf(draft.Subtotal, draft.TaxPercent)
		result := Validate(draft)
		assert.True(t, result.IsValid, result.ErrorMessage())
	})
}

func TestValidate_TaxPercentRange(t *testing.T) {
	tests := []struct {
		name  string
		tax   int64
		valid bool
	}{
		{"zero percent", 0, true},
		{"hundred percent", 100, true},
		{"negative", -1, false},
		{"above hundred", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.TaxPercent = decimal.NewFromInt(tt.tax)
			draft.Total = TotalOf(draft.Subtotal, draft.TaxPercent)
			result := Validate(draft)
			assert.Equal(t, tt.valid, result.IsValid, result.ErrorMessage())
		})
	}
}

func TestValidate_SubtotalMismatch(t *testing.T) {
	draft := validDraft()
	draft.Subtotal = decimal.NewFromInt(999999)
	result := Validate(draft)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.ErrorMessage(), "does not match sum of item amounts")
}

func TestValidate_TotalMismatch(t *testing.T) {
	// Scenario from the billing rules: tax omitted from the total.
	draft := validDraft()
	draft.Total = decimal.NewFromInt(1000000)
	result := Validate(draft)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.ErrorMessage(), "does not match subtotal plus tax")
}

func TestValidate_ToleranceAbsorbsRoundingError(t *testing.T) {
	draft := validDraft()
	draft.Subtotal = decimal.NewFromFloat(1000000.009)
	draft.Total = decimal.NewFromFloat(1100000.005)
	result := Validate(draft)
	assert.True(t, result.IsValid, result.ErrorMessage())
}

func TestValidate_Idempotent(t *testing.T) {
	draft := validDraft()
	draft.ProjectID = uuid.Nil
	draft.Total = decimal.NewFromInt(42)

	first := Validate(draft)
	second := Validate(draft)
	assert.Equal(t, first.IsValid, second.IsValid)
	assert.Equal(t, first.Errors, second.Errors)
}
