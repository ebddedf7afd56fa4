package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freelancedesk/backend/internal/domain/billing"
	"github.com/freelancedesk/backend/internal/domain/project"
	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/infrastructure/logger"
	"github.com/freelancedesk/backend/internal/infrastructure/telemetry"
)

// numberAllocationRetries bounds how often a create re-runs allocation
// after losing a unique-index race.
const numberAllocationRetries = 3

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	projectRepo project.ProjectRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo billing.InvoiceRepository, projectRepo project.ProjectRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
	}
}

// ItemRequest is one invoice line in a create request
type ItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	ProjectID    uuid.UUID       `json:"project_id" binding:"required"`
	BilledToName string          `json:"billed_to_name"`
	Items        []ItemRequest   `json:"items" binding:"required"`
	TaxPercent   decimal.Decimal `json:"tax_percent"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
}

// UpdateInvoiceRequest carries the single mutable field of an issued invoice
type UpdateInvoiceRequest struct {
	BilledToName string `json:"billed_to_name" binding:"required"`
}

// UpdateInvoiceStatusRequest moves an invoice between payment states
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid overdue"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search    string     `form:"search"`
	Status    string     `form:"status"`
	ProjectID *uuid.UUID `form:"project_id"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// ValidationError carries the collected draft violations across the
// service boundary.
type ValidationError struct {
	Result billing.ValidationResult
}

func (e *ValidationError) Error() string {
	return e.Result.ErrorMessage()
}

// draftFromRequest snapshots the project into an invoice draft. The
// billed-to name falls back to the project's client name.
func draftFromRequest(p *project.Project, req CreateInvoiceRequest) billing.InvoiceDraft {
	billedTo := req.BilledToName
	if billedTo == "" {
		billedTo = p.ClientName
	}
	draft := billing.InvoiceDraft{
		ProjectID:    p.ID,
		ProjectTitle: p.Title,
		BilledToName: billedTo,
		TaxPercent:   req.TaxPercent,
		Subtotal:     req.Subtotal,
		Total:        req.Total,
	}
	draft.Items = make([]billing.ItemDraft, len(req.Items))
	for i, item := range req.Items {
		draft.Items[i] = billing.ItemDraft{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		}
	}
	return draft
}

// CreateInvoice validates the draft, allocates the next sequential number
// and persists the invoice. Losing the unique-index race re-allocates and
// retries a bounded number of times.
func (s *InvoiceService) CreateInvoice(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest) (*billing.Invoice, error) {
	ctx, span := telemetry.StartSpan(ctx, "invoice.create")
	defer span.End()

	proj, err := s.projectRepo.FindByIDForUser(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	draft := draftFromRequest(proj, req)
	if result := billing.Validate(draft); !result.IsValid {
		return nil, &ValidationError{Result: result}
	}

	var lastErr error
	for attempt := 0; attempt < numberAllocationRetries; attempt++ {
		number, err := s.invoiceRepo.GenerateInvoiceNumber(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		invoice, err := billing.NewInvoice(userID, number, draft)
		if err != nil {
			return nil, err
		}

		err = s.invoiceRepo.Save(ctx, invoice)
		if err == nil {
			logger.L(ctx).Info("invoice created",
				zap.String("invoice_number", number),
				zap.String("invoice_id", invoice.ID.String()))
			return invoice, nil
		}
		if !errors.Is(err, shared.ErrDuplicateNumber) {
			telemetry.RecordError(span, err)
			return nil, err
		}

		// Lost the race for this number; scan again.
		lastErr = err
		logger.L(ctx).Warn("invoice number taken, retrying allocation",
			zap.String("invoice_number", number),
			zap.Int("attempt", attempt+1))
	}

	telemetry.RecordError(span, lastErr)
	return nil, lastErr
}

// GetInvoice fetches an invoice owned by userID
func (s *InvoiceService) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*billing.Invoice, error) {
	return s.invoiceRepo.FindByIDForUser(ctx, userID, id)
}

// ListInvoices returns a page of the user's invoices, newest first by default
func (s *InvoiceService) ListInvoices(ctx context.Context, userID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[billing.Invoice], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 && filter.PageSize <= 100 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.ProjectID != nil {
		f.Filters["project_id"] = *filter.ProjectID
	}

	invoices, err := s.invoiceRepo.FindAllForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.CountForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(invoices, total, f.Page, f.PageSize)
	return &page, nil
}

// UpdateInvoice changes the billed-to display name
func (s *InvoiceService) UpdateInvoice(ctx context.Context, userID, id uuid.UUID, req UpdateInvoiceRequest) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.UpdateBilledToName(req.BilledToName); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateInvoiceStatus moves the invoice to a new payment status
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, userID, id uuid.UUID, req UpdateInvoiceStatusRequest) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.ChangeStatus(billing.InvoiceStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// DeleteInvoice removes an invoice owned by userID. The freed number
// becomes available for re-allocation if it was the period's highest.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.invoiceRepo.DeleteForUser(ctx, userID, id); err != nil {
		return err
	}
	logger.L(ctx).Info("invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

// MarkOverdueInvoices flips pending invoices past the cutoff to overdue.
// Used by the dashboard refresh, not a scheduled job.
func (s *InvoiceService) MarkOverdueInvoices(ctx context.Context, userID uuid.UUID, olderThan time.Time) (int, error) {
	f := shared.DefaultFilter()
	f.PageSize = 100
	f.Filters["status"] = string(billing.InvoiceStatusPending)

	invoices, err := s.invoiceRepo.FindAllForUser(ctx, userID, f)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for i := range invoices {
		if invoices[i].CreatedAt.After(olderThan) {
			continue
		}
		if err := invoices[i].ChangeStatus(billing.InvoiceStatusOverdue); err != nil {
			return flipped, err
		}
		if err := s.invoiceRepo.Save(ctx, &invoices[i]); err != nil {
			return flipped, err
		}
		flipped++
	}
	return flipped, nil
}
