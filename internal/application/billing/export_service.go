package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freelancedesk/backend/internal/domain/billing"
	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/infrastructure/logger"
	"github.com/freelancedesk/backend/internal/infrastructure/printing"
	"github.com/freelancedesk/backend/internal/infrastructure/storage"
	"github.com/freelancedesk/backend/internal/infrastructure/telemetry"
)

// maxBulkExportSize caps how many invoices one bulk export may request.
const maxBulkExportSize = 50

var (
	// ErrEmptyBatch is returned when a bulk export names no invoices.
	ErrEmptyBatch = shared.NewDomainError("EMPTY_BATCH", "at least one invoice id is required")
	// ErrBatchTooLarge is returned before any store access when the
	// request exceeds maxBulkExportSize.
	ErrBatchTooLarge = shared.NewDomainError("BATCH_SIZE", "a bulk export is limited to 50 invoices")
	// ErrNoValidInvoices is returned when none of the requested ids
	// resolve to an invoice the caller owns.
	ErrNoValidInvoices = shared.NewDomainError("NO_VALID_INVOICES", "none of the requested invoices were found")
)

// ExportService renders invoices to PDF, singly or batched into a ZIP
// archive. Rendering is all-or-nothing: a bulk export either yields an
// archive covering every resolved invoice or fails without output.
type ExportService struct {
	invoiceRepo  billing.InvoiceRepository
	renderer     printing.PDFRenderer
	engine       *printing.TemplateEngine
	archiveStore storage.ArchiveStore
}

// NewExportService creates a new ExportService. archiveStore may be nil,
// in which case bulk exports are returned inline only.
func NewExportService(invoiceRepo billing.InvoiceRepository, renderer printing.PDFRenderer, archiveStore storage.ArchiveStore) *ExportService {
	return &ExportService{
		invoiceRepo:  invoiceRepo,
		renderer:     renderer,
		engine:       printing.NewTemplateEngine(),
		archiveStore: archiveStore,
	}
}

// BulkExportRequest names the invoices to bundle into one archive
type BulkExportRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids" binding:"required"`
}

// PDFResult is a rendered document ready to stream to the client
type PDFResult struct {
	Filename string
	Data     []byte
}

// ArchiveResult is a rendered ZIP bundle, optionally mirrored to object
// storage.
type ArchiveResult struct {
	Filename     string
	Data         []byte
	InvoiceCount int
	DownloadURL  string
	URLExpiresAt time.Time
}

// renderDocument turns one document into PDF bytes
func (s *ExportService) renderDocument(ctx context.Context, doc *printing.InvoiceDocument) ([]byte, error) {
	html, err := printing.BuildInvoiceHTML(s.engine, doc)
	if err != nil {
		return nil, err
	}
	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:  html,
		Title: doc.InvoiceNumber,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

// RenderInvoicePDF renders a single owned invoice to PDF
func (s *ExportService) RenderInvoicePDF(ctx context.Context, userID, id uuid.UUID) (*PDFResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "export.invoice_pdf")
	defer span.End()

	invoice, err := s.invoiceRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	data, err := s.renderDocument(ctx, printing.DocumentFromInvoice(invoice))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("invoice pdf rendered",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("bytes", len(data)))
	return &PDFResult{
		Filename: printing.PDFFilename(invoice.InvoiceNumber, invoice.BilledToName),
		Data:     data,
	}, nil
}

// RenderBulkInvoicePDFs renders every resolvable requested invoice and
// bundles the PDFs into one ZIP archive. Size limits are enforced before
// any store access; ids the caller does not own are silently skipped; a
// single render failure aborts the whole export.
func (s *ExportService) RenderBulkInvoicePDFs(ctx context.Context, userID uuid.UUID, req BulkExportRequest) (*ArchiveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "export.bulk_invoice_pdfs")
	defer span.End()

	if len(req.InvoiceIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(req.InvoiceIDs) > maxBulkExportSize {
		return nil, ErrBatchTooLarge
	}

	invoices, err := s.invoiceRepo.FindAllByIDsForUser(ctx, userID, req.InvoiceIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, ErrNoValidInvoices
	}

	entries := make([]printing.ArchiveEntry, 0, len(invoices))
	for i := range invoices {
		data, err := s.renderDocument(ctx, printing.DocumentFromInvoice(&invoices[i]))
		if err != nil {
			logger.L(ctx).Error("bulk export aborted on render failure",
				zap.String("invoice_number", invoices[i].InvoiceNumber),
				zap.Error(err))
			telemetry.RecordError(span, err)
			return nil, err
		}
		entries = append(entries, printing.ArchiveEntry{
			Name: printing.PDFFilename(invoices[i].InvoiceNumber, invoices[i].BilledToName),
			Data: data,
		})
	}

	archive, err := printing.BuildArchive(entries)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &ArchiveResult{
		Filename:     printing.ArchiveFilename(time.Now()),
		Data:         archive,
		InvoiceCount: len(invoices),
	}

	if s.archiveStore != nil {
		if err := s.archiveStore.StoreArchive(ctx, result.Filename, archive); err != nil {
			// The archive is complete; a storage mirror failure
			// does not invalidate the inline response.
			logger.L(ctx).Warn("archive upload failed", zap.Error(err))
		} else if url, expiresAt, err := s.archiveStore.DownloadURL(ctx, result.Filename, 0); err == nil {
			result.DownloadURL = url
			result.URLExpiresAt = expiresAt
		}
	}

	logger.L(ctx).Info("bulk export complete",
		zap.Int("requested", len(req.InvoiceIDs)),
		zap.Int("rendered", len(invoices)),
		zap.Int("archive_bytes", len(archive)))
	return result, nil
}

// CombinedInvoiceRequest describes an ad hoc invoice spanning work from
// several projects. It is rendered directly from the payload, never stored.
type CombinedInvoiceRequest struct {
	BilledToName string          `json:"billed_to_name" binding:"required"`
	Items        []ItemRequest   `json:"items" binding:"required"`
	TaxPercent   decimal.Decimal `json:"tax_percent"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
}

// RenderCombinedPDF validates the payload arithmetic with the same
// tolerance as invoice creation and renders a one-off document. Nothing
// is persisted and no invoice number is consumed; the document carries a
// synthetic COMBINED number instead.
func (s *ExportService) RenderCombinedPDF(ctx context.Context, req CombinedInvoiceRequest) (*PDFResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "export.combined_pdf")
	defer span.End()

	draft := billing.InvoiceDraft{
		BilledToName: req.BilledToName,
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

	if result := billing.ValidateCombined(draft); !result.IsValid {
		return nil, &ValidationError{Result: result}
	}

	doc := printing.CombinedDocument(draft, time.Now())
	data, err := s.renderDocument(ctx, doc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &PDFResult{
		Filename: printing.PDFFilename(doc.InvoiceNumber, doc.BilledToName),
		Data:     data,
	}, nil
}
