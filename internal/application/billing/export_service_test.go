package billing

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/freelancedesk/backend/internal/domain/billing"
	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/infrastructure/printing"
	"github.com/freelancedesk/backend/internal/infrastructure/storage"
)

// MockPDFRenderer is a mock implementation of printing.PDFRenderer
type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func pdfResult(data string) *printing.RenderResult {
	return &printing.RenderResult{PDFData: []byte(data), PageCount: 1}
}

func createTestInvoice(t *testing.T, userID uuid.UUID, number, billedTo string) *billing.Invoice {
	t.Helper()
	draft := billing.InvoiceDraft{
		ProjectID:    newTestProjectID(),
		ProjectTitle: "Website Redesign",
		BilledToName: billedTo,
		Items: []billing.ItemDraft{
			{Description: "Design work", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(1000)},
		},
		TaxPercent: decimal.NewFromInt(10),
		Subtotal:   decimal.NewFromInt(1000),
		Total:      decimal.NewFromInt(1100),
	}
	invoice, err := billing.NewInvoice(userID, number, draft)
	require.NoError(t, err)
	return invoice
}

func archiveNames(t *testing.T, data []byte) []string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	return names
}

func TestExportService_RenderInvoicePDF(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	invoice := createTestInvoice(t, userID, "INV-202608-001", "Acme Corp")

	mockRepo.On("FindByIDForUser", mock.Anything, userID, invoice.ID).Return(invoice, nil)
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderInvoicePDF(context.Background(), userID, invoice.ID)

	assert.NoError(t, err)
	assert.Equal(t, "Invoice_INV-202608-001_Acme_Corp.pdf", result.Filename)
	assert.Equal(t, []byte("%PDF-fake"), result.Data)
	mockRenderer.AssertExpectations(t)
}

func TestExportService_RenderInvoicePDF_NotFound(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	id := uuid.New()

	mockRepo.On("FindByIDForUser", mock.Anything, userID, id).Return(nil, shared.ErrNotFound)

	result, err := service.RenderInvoicePDF(context.Background(), userID, id)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	mockRenderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestExportService_RenderBulkInvoicePDFs(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	a := createTestInvoice(t, userID, "INV-202608-001", "Acme Corp")
	b := createTestInvoice(t, userID, "INV-202608-002", "Globex Inc")
	ids := []uuid.UUID{a.ID, b.ID}

	mockRepo.On("FindAllByIDsForUser", mock.Anything, userID, ids).Return([]billing.Invoice{*a, *b}, nil)
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderBulkInvoicePDFs(context.Background(), userID, BulkExportRequest{InvoiceIDs: ids})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.InvoiceCount)
	assert.Regexp(t, `^invoices_\d{4}-\d{2}-\d{2}_\d{6}\.zip$`, result.Filename)
	assert.Equal(t, []string{
		"Invoice_INV-202608-001_Acme_Corp.pdf",
		"Invoice_INV-202608-002_Globex_Inc.pdf",
	}, archiveNames(t, result.Data))
}

func TestExportService_RenderBulkInvoicePDFs_EmptyBatch(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	result, err := service.RenderBulkInvoicePDFs(context.Background(), newTestUserID(), BulkExportRequest{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	mockRepo.AssertNotCalled(t, "FindAllByIDsForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportService_RenderBulkInvoicePDFs_BatchTooLarge(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	ids := make([]uuid.UUID, 51)
	for i := range ids {
		ids[i] = uuid.New()
	}

	result, err := service.RenderBulkInvoicePDFs(context.Background(), newTestUserID(), BulkExportRequest{InvoiceIDs: ids})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	// The limit is enforced before any store access
	mockRepo.AssertNotCalled(t, "FindAllByIDsForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportService_RenderBulkInvoicePDFs_FullBatchAtLimit(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	invoices := make([]billing.Invoice, 50)
	ids := make([]uuid.UUID, 50)
	for i := range invoices {
		inv := createTestInvoice(t, userID, billing.FormatNumber("INV-202608", i+1), "Acme Corp")
		invoices[i] = *inv
		ids[i] = inv.ID
	}

	mockRepo.On("FindAllByIDsForUser", mock.Anything, userID, ids).Return(invoices, nil)
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderBulkInvoicePDFs(context.Background(), userID, BulkExportRequest{InvoiceIDs: ids})

	// 50 is inside the limit; only 51 and up are rejected
	require.NoError(t, err)
	assert.Equal(t, 50, result.InvoiceCount)
	assert.Len(t, archiveNames(t, result.Data), 50)
	mockRenderer.AssertNumberOfCalls(t, "Render", 50)
}

func TestExportService_RenderBulkInvoicePDFs_ForeignIDsSilentlySkipped(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	own := createTestInvoice(t, userID, "INV-202608-001", "Acme Corp")
	foreignID := uuid.New()
	ids := []uuid.UUID{own.ID, foreignID}

	// The repository already filtered out the foreign id
	mockRepo.On("FindAllByIDsForUser", mock.Anything, userID, ids).Return([]billing.Invoice{*own}, nil)
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderBulkInvoicePDFs(context.Background(), userID, BulkExportRequest{InvoiceIDs: ids})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.InvoiceCount)
	assert.Equal(t, []string{"Invoice_INV-202608-001_Acme_Corp.pdf"}, archiveNames(t, result.Data))
}

func TestExportService_RenderBulkInvoicePDFs_NoValidInvoices(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mockRepo.On("FindAllByIDsForUser", mock.Anything, userID, ids).Return([]billing.Invoice{}, nil)

	result, err := service.RenderBulkInvoicePDFs(context.Background(), userID, BulkExportRequest{InvoiceIDs: ids})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoValidInvoices)
	mockRenderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestExportService_RenderBulkInvoicePDFs_RenderFailureAbortsExport(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	userID := newTestUserID()
	a := createTestInvoice(t, userID, "INV-202608-001", "Acme Corp")
	b := createTestInvoice(t, userID, "INV-202608-002", "Globex Inc")
	ids := []uuid.UUID{a.ID, b.ID}

	renderErr := printing.NewRenderError(printing.ErrCodeRenderFailed, "chrome crashed", nil)

	mockRepo.On("FindAllByIDsForUser", mock.Anything, userID, ids).Return([]billing.Invoice{*a, *b}, nil)
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil).Once()
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(nil, renderErr).Once()

	result, err := service.RenderBulkInvoicePDFs(context.Background(), userID, BulkExportRequest{InvoiceIDs: ids})

	// All or nothing: no partial archive
	assert.Nil(t, result)
	var rerr *printing.RenderError
	assert.ErrorAs(t, err, &rerr)
	assert.Equal(t, printing.ErrCodeRenderFailed, rerr.Code)
}

func TestExportService_RenderBulkInvoicePDFs_MirrorsToArchiveStore(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	store := storage.NewStubArchiveStore()
	service := NewExportService(mockRepo, mockRenderer, store)

	userID := newTestUserID()
	a := createTestInvoice(t, userID, "INV-202608-001", "Acme Corp")
	ids := []uuid.UUID{a.ID}

	mockRepo.On("FindAllByIDsForUser", mock.Anything, userID, ids).Return([]billing.Invoice{*a}, nil)
	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderBulkInvoicePDFs(context.Background(), userID, BulkExportRequest{InvoiceIDs: ids})

	require.NoError(t, err)
	stored, ok := store.Get(result.Filename)
	assert.True(t, ok)
	assert.Equal(t, result.Data, stored)
	assert.NotEmpty(t, result.DownloadURL)
}

func TestExportService_RenderCombinedPDF(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	req := CombinedInvoiceRequest{
		BilledToName: "Acme Corp",
		Items: []ItemRequest{
			{Description: "Project A work", Quantity: decimal.NewFromInt(5), Rate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(500)},
			{Description: "Project B work", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(250), Amount: decimal.NewFromInt(500)},
		},
		TaxPercent: decimal.Zero,
		Subtotal:   decimal.NewFromInt(1000),
		Total:      decimal.NewFromInt(1000),
	}

	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderCombinedPDF(context.Background(), req)

	assert.NoError(t, err)
	assert.Regexp(t, `^Invoice_COMBINED-\d+_Acme_Corp\.pdf$`, result.Filename)
	// Nothing is persisted and no number is consumed
	mockRepo.AssertNotCalled(t, "GenerateInvoiceNumber", mock.Anything)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestExportService_RenderCombinedPDF_ToleranceRejection(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	req := CombinedInvoiceRequest{
		BilledToName: "Acme Corp",
		Items: []ItemRequest{
			{Description: "Work", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(100)},
		},
		TaxPercent: decimal.Zero,
		Subtotal:   decimal.NewFromInt(100),
		// Off by more than the 0.01 tolerance
		Total: decimal.NewFromFloat(100.02),
	}

	result, err := service.RenderCombinedPDF(context.Background(), req)

	assert.Nil(t, result)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	mockRenderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestExportService_RenderCombinedPDF_WithinTolerancePasses(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	mockRenderer := new(MockPDFRenderer)
	service := NewExportService(mockRepo, mockRenderer, nil)

	req := CombinedInvoiceRequest{
		BilledToName: "Acme Corp",
		Items: []ItemRequest{
			{Description: "Work", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromFloat(33.33), Amount: decimal.NewFromFloat(33.33)},
			{Description: "More work", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromFloat(33.33), Amount: decimal.NewFromFloat(66.67)},
		},
		TaxPercent: decimal.NewFromInt(10),
		Subtotal:   decimal.NewFromInt(100),
		Total:      decimal.NewFromFloat(110.01),
	}

	mockRenderer.On("Render", mock.Anything, mock.AnythingOfType("*printing.RenderRequest")).Return(pdfResult("%PDF-fake"), nil)

	result, err := service.RenderCombinedPDF(context.Background(), req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
}
