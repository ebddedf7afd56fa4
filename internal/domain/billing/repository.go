package billing

import (
	"context"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for invoices.
// All reads and deletes are owner-scoped; the unique index on invoice_number
// is the serialization point for number allocation.
type InvoiceRepository interface {
	shared.OwnedRepository[Invoice]

	// FindAllByIDsForUser fetches the invoices among ids owned by userID.
	// Ids belonging to other users are silently absent from the result.
	FindAllByIDsForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]Invoice, error)

	// GenerateInvoiceNumber derives the next number for the current
	// year-month period by scanning existing records. The result is a
	// candidate only; the unique index arbitrates under concurrency.
	GenerateInvoiceNumber(ctx context.Context) (string, error)

	// CountByStatusForUser returns invoice counts and summed totals per status.
	CountByStatusForUser(ctx context.Context, userID uuid.UUID) (map[InvoiceStatus]StatusAggregate, error)

	// FindRecentForUser returns the most recently created invoices.
	FindRecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Invoice, error)
}

// StatusAggregate is the per-status rollup used by the dashboard.
type StatusAggregate struct {
	Count int64  `json:"count"`
	Total string `json:"total"`
}
