package billing

import (
	"fmt"
	"strings"

	"github.com/freelancedesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDraft is a candidate invoice line as submitted by the caller.
type ItemDraft struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceDraft is a candidate invoice payload before numbering and persistence.
type InvoiceDraft struct {
	ProjectID    uuid.UUID       `json:"project_id"`
	ProjectTitle string          `json:"project_title"`
	BilledToName string          `json:"billed_to_name"`
	Items        []ItemDraft     `json:"items"`
	TaxPercent   decimal.Decimal `json:"tax_percent"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
}

// ValidationResult carries the outcome of draft validation. All violations
// are collected so a single round trip surfaces every problem at once.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ErrorMessage joins all violations into one human-readable string.
func (r ValidationResult) ErrorMessage() string {
	return strings.Join(r.Errors, "; ")
}

var oneHundred = decimal.NewFromInt(100)

// Validate checks an invoice draft and returns every violation found.
// It never panics and never stops at the first failure; checks run in a
// fixed order so repeated calls on the same draft yield identical results.
func Validate(draft InvoiceDraft) ValidationResult {
	var errs []string

	if draft.ProjectID == uuid.Nil {
		errs = append(errs, "project id is required")
	}
	if strings.TrimSpace(draft.ProjectTitle) == "" {
		errs = append(errs, "project title is required")
	}
	errs = append(errs, commonViolations(draft)...)

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// ValidateCombined checks an ad hoc combined draft that is rendered but
// never stored. No backing project exists, so only the billed-to name,
// items and arithmetic are checked.
func ValidateCombined(draft InvoiceDraft) ValidationResult {
	errs := commonViolations(draft)
	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

func commonViolations(draft InvoiceDraft) []string {
	var errs []string

	if strings.TrimSpace(draft.BilledToName) == "" {
		errs = append(errs, "billed-to name is required")
	}

	if len(draft.Items) == 0 {
		errs = append(errs, "at least one item is required")
	}
	for i, item := range draft.Items {
		n := i + 1
		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, fmt.Sprintf("item %d: description is required", n))
		}
		if !item.Quantity.IsPositive() {
			errs = append(errs, fmt.Sprintf("item %d: quantity must be greater than zero", n))
		}
		if item.Rate.IsNegative() {
			errs = append(errs, fmt.Sprintf("item %d: rate cannot be negative", n))
		}
		if item.Amount.IsNegative() {
			errs = append(errs, fmt.Sprintf("item %d: amount cannot be negative", n))
		}
		// Amount is caller-supplied, not derived, so it must agree with
		// quantity x rate within the money tolerance.
		lineAmount := valueobject.NewMoneyUSD(item.Rate).Multiply(item.Quantity)
		if !valueobject.NewMoneyUSD(item.Amount).WithinTolerance(lineAmount) {
			errs = append(errs, fmt.Sprintf("item %d: amount %s does not match quantity x rate %s",
				n, item.Amount.StringFixed(2), lineAmount.StringFixed(2)))
		}
	}

	if draft.TaxPercent.IsNegative() || draft.TaxPercent.GreaterThan(oneHundred) {
		errs = append(errs, "tax percent must be between 0 and 100")
	}
	if draft.Subtotal.IsNegative() {
		errs = append(errs, "subtotal cannot be negative")
	}
	if draft.Total.IsNegative() {
		errs = append(errs, "total cannot be negative")
	}

	recomputed := valueobject.ZeroUSD()
	for _, item := range draft.Items {
		recomputed = recomputed.MustAdd(valueobject.NewMoneyUSD(item.Amount))
	}
	if !valueobject.NewMoneyUSD(draft.Subtotal).WithinTolerance(recomputed) {
		errs = append(errs, fmt.Sprintf("subtotal %s does not match sum of item amounts %s",
			draft.Subtotal.StringFixed(2), recomputed.StringFixed(2)))
	}
	expectedTotal := valueobject.NewMoneyUSD(TotalOf(draft.Subtotal, draft.TaxPercent))
	if !valueobject.NewMoneyUSD(draft.Total).WithinTolerance(expectedTotal) {
		errs = append(errs, fmt.Sprintf("total %s does not match subtotal plus tax %s",
			draft.Total.StringFixed(2), expectedTotal.StringFixed(2)))
	}

	return errs
}
