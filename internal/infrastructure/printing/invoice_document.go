package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freelancedesk/backend/internal/domain/billing"
)

// DocumentItem is one rendered invoice line
type DocumentItem struct {
	Position    int
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// InvoiceDocument is the data handed to the invoice template. It contains
// everything the layout needs so the renderer never touches the database.
type InvoiceDocument struct {
	InvoiceNumber string
	Date          time.Time
	Status        string
	BilledToName  string
	ProjectTitle  string
	Items         []DocumentItem
	Subtotal      decimal.Decimal
	TaxPercent    decimal.Decimal
	Total         decimal.Decimal
	// ShowTax hides the tax line entirely for zero-tax invoices
	ShowTax bool
}

// DocumentFromInvoice builds the template data for a stored invoice.
// The invoice's own creation date is the only date stamped on the page.
func DocumentFromInvoice(inv *billing.Invoice) *InvoiceDocument {
	doc := &InvoiceDocument{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.CreatedAt,
		Status:        strings.ToUpper(inv.Status.String()),
		BilledToName:  inv.BilledToName,
		ProjectTitle:  inv.ProjectTitle,
		Subtotal:      inv.Subtotal,
		TaxPercent:    inv.TaxPercent,
		Total:         inv.Total,
		ShowTax:       inv.TaxPercent.IsPositive(),
	}
	doc.Items = make([]DocumentItem, len(inv.Items))
	for i, item := range inv.Items {
		doc.Items[i] = DocumentItem{
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		}
	}
	return doc
}

// CombinedDocument builds template data for an ad hoc combined invoice that
// is rendered but never persisted. Its synthetic number embeds the render
// wall time.
func CombinedDocument(draft billing.InvoiceDraft, now time.Time) *InvoiceDocument {
	doc := &InvoiceDocument{
		InvoiceNumber: fmt.Sprintf("COMBINED-%d", now.Unix()),
		Date:          now,
		Status:        "DRAFT",
		BilledToName:  draft.BilledToName,
		ProjectTitle:  draft.ProjectTitle,
		Subtotal:      draft.Subtotal,
		TaxPercent:    draft.TaxPercent,
		Total:         draft.Total,
		ShowTax:       draft.TaxPercent.IsPositive(),
	}
	doc.Items = make([]DocumentItem, len(draft.Items))
	for i, item := range draft.Items {
		doc.Items[i] = DocumentItem{
			Position:    i + 1,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		}
	}
	return doc
}

// SanitizeFilename maps every rune outside [A-Za-z0-9] to an underscore,
// one to one, so names survive any filesystem and ZIP tooling.
func SanitizeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// PDFFilename names a single rendered invoice:
// Invoice_{number}_{sanitized billed-to name}.pdf
// The number is already filesystem-safe and keeps its hyphens.
func PDFFilename(invoiceNumber, billedToName string) string {
	return fmt.Sprintf("Invoice_%s_%s.pdf",
		invoiceNumber, SanitizeFilename(billedToName))
}

// ArchiveFilename names a bulk export archive from its wall time:
// invoices_{YYYY-MM-DD}_{HHMMSS}.zip
func ArchiveFilename(now time.Time) string {
	return fmt.Sprintf("invoices_%s_%s.zip",
		now.Format("2006-01-02"), now.Format("150405"))
}
