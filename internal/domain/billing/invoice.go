package billing

import (
	"fmt"
	"regexp"
	"time"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending" // Issued, awaiting payment
	InvoiceStatusPaid    InvoiceStatus = "paid"    // Payment received
	InvoiceStatusOverdue InvoiceStatus = "overdue" // Past due date, unpaid
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// NumberPrefix is the leading token of every issued invoice number.
const NumberPrefix = "INV"

// invoiceNumberPattern matches the full issued number format INV-YYYYMM-NNN.
var invoiceNumberPattern = regexp.MustCompile(`^INV-\d{6}-\d{3}$`)

// PeriodPrefix returns the year-month bucket prefix (e.g. "INV-202608")
// used for sequence allocation at the given time.
func PeriodPrefix(now time.Time) string {
	return fmt.Sprintf("%s-%04d%02d", NumberPrefix, now.Year(), int(now.Month()))
}

// FormatNumber builds a full invoice number from a period prefix and sequence.
func FormatNumber(prefix string, sequence int) string {
	return fmt.Sprintf("%s-%03d", prefix, sequence)
}

// ValidNumber reports whether s is a well-formed issued invoice number.
func ValidNumber(s string) bool {
	return invoiceNumberPattern.MatchString(s)
}

// InvoiceItem is a single billable line on an invoice.
// Amount is caller-supplied rather than derived, but must agree with
// quantity x rate within the money tolerance.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

// Invoice is the aggregate root for a billing document. Once issued it is a
// frozen snapshot: project title and line items never change even if the
// source project does. The billed-to display name is the sole mutable field.
type Invoice struct {
	shared.OwnedEntity
	InvoiceNumber string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_invoice_number" json:"invoice_number"`
	ProjectID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	ProjectTitle  string          `gorm:"type:varchar(200);not null" json:"project_title"`
	BilledToName  string          `gorm:"type:varchar(200);not null" json:"billed_to_name"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	TaxPercent    decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"tax_percent"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}

// TableName returns the database table name for invoices
func (Invoice) TableName() string {
	return "invoices"
}

// SubtotalOf returns the sum of all item amounts. Zero items yield zero.
func SubtotalOf(items []InvoiceItem) decimal.Decimal {
	sum := valueobject.ZeroUSD()
	for _, item := range items {
		sum = sum.MustAdd(valueobject.NewMoneyUSD(item.Amount))
	}
	return sum.Amount()
}

// TotalOf returns subtotal plus tax: subtotal + subtotal*taxPercent/100.
func TotalOf(subtotal, taxPercent decimal.Decimal) decimal.Decimal {
	s := valueobject.NewMoneyUSD(subtotal)
	return s.MustAdd(s.CalculatePercentage(taxPercent)).Amount()
}

// NewInvoice creates an issued invoice from a validated draft. The caller is
// expected to have run Validate on the draft first; NewInvoice still refuses
// drafts whose totals are inconsistent.
func NewInvoice(userID uuid.UUID, invoiceNumber string, draft InvoiceDraft) (*Invoice, error) {
	if !ValidNumber(invoiceNumber) {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "invoice number must match INV-YYYYMM-NNN")
	}
	if result := Validate(draft); !result.IsValid {
		return nil, shared.ErrInvalidInput
	}

	inv := &Invoice{
		OwnedEntity:   shared.NewOwnedEntity(userID),
		InvoiceNumber: invoiceNumber,
		ProjectID:     draft.ProjectID,
		ProjectTitle:  draft.ProjectTitle,
		BilledToName:  draft.BilledToName,
		Subtotal:      draft.Subtotal,
		TaxPercent:    draft.TaxPercent,
		Total:         draft.Total,
		Status:        InvoiceStatusPending,
	}
	inv.Items = make([]InvoiceItem, len(draft.Items))
	for i, item := range draft.Items {
		inv.Items[i] = InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Position:    i + 1,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		}
	}
	return inv, nil
}

// UpdateBilledToName changes the billed-to display name, the only field an
// issued invoice allows to change.
func (i *Invoice) UpdateBilledToName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "billed-to name cannot be empty")
	}
	i.BilledToName = name
	i.UpdatedAt = time.Now()
	return nil
}

// ChangeStatus moves the invoice to the given payment status.
func (i *Invoice) ChangeStatus(status InvoiceStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("unknown invoice status %q", status))
	}
	i.Status = status
	i.UpdatedAt = time.Now()
	return nil
}

// CheckTotals re-verifies the monetary invariants at the moment of durable
// write. It guards against any write path that bypassed Validate.
func (i *Invoice) CheckTotals() error {
	if !valueobject.AmountsWithinTolerance(i.Subtotal, SubtotalOf(i.Items)) {
		return shared.NewDomainError("SUBTOTAL_MISMATCH", "subtotal does not match sum of item amounts")
	}
	if !valueobject.AmountsWithinTolerance(i.Total, TotalOf(i.Subtotal, i.TaxPercent)) {
		return shared.NewDomainError("TOTAL_MISMATCH", "total does not match subtotal plus tax")
	}
	return nil
}
