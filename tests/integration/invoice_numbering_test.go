package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	billingapp "github.com/freelancedesk/backend/internal/application/billing"
	"github.com/freelancedesk/backend/internal/domain/billing"
	"github.com/freelancedesk/backend/internal/infrastructure/persistence"
)

func invoiceRequest(projectID uuid.UUID) billingapp.CreateInvoiceRequest {
	return billingapp.CreateInvoiceRequest{
		ProjectID: projectID,
		Items: []billingapp.ItemRequest{
			{
				Description: "Design work",
				Quantity:    decimal.NewFromInt(10),
				Rate:        decimal.NewFromInt(50),
				Amount:      decimal.NewFromInt(500),
			},
		},
		TaxPercent: decimal.NewFromInt(10),
		Subtotal:   decimal.NewFromInt(500),
		Total:      decimal.NewFromInt(550),
	}
}

func TestInvoiceNumbersAreSequentialWithinPeriod(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	userID := tdb.CreateTestUser("seq@example.com")
	p := tdb.CreateTestProject(userID, "Website Redesign", "Acme Corp")

	invoiceRepo := persistence.NewGormInvoiceRepository(tdb.DB)
	projectRepo := persistence.NewGormProjectRepository(tdb.DB)
	svc := billingapp.NewInvoiceService(invoiceRepo, projectRepo)

	period := time.Now().UTC().Format("200601")
	for i := 1; i <= 3; i++ {
		inv, err := svc.CreateInvoice(ctx, userID, invoiceRequest(p.ID))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%s-%03d", period, i), inv.InvoiceNumber)
	}
}

func TestInvoiceNumberSequenceSpansUsers(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	aliceID := tdb.CreateTestUser("alice@example.com")
	bobID := tdb.CreateTestUser("bob@example.com")
	aliceProject := tdb.CreateTestProject(aliceID, "Branding", "Acme Corp")
	bobProject := tdb.CreateTestProject(bobID, "App Build", "Globex Inc")

	invoiceRepo := persistence.NewGormInvoiceRepository(tdb.DB)
	projectRepo := persistence.NewGormProjectRepository(tdb.DB)
	svc := billingapp.NewInvoiceService(invoiceRepo, projectRepo)

	first, err := svc.CreateInvoice(ctx, aliceID, invoiceRequest(aliceProject.ID))
	require.NoError(t, err)
	second, err := svc.CreateInvoice(ctx, bobID, invoiceRequest(bobProject.ID))
	require.NoError(t, err)

	// Numbers come from one global sequence; ownership only scopes reads
	period := time.Now().UTC().Format("200601")
	assert.Equal(t, fmt.Sprintf("INV-%s-001", period), first.InvoiceNumber)
	assert.Equal(t, fmt.Sprintf("INV-%s-002", period), second.InvoiceNumber)

	// Bob cannot read Alice's invoice
	_, err = svc.GetInvoice(ctx, bobID, first.ID)
	assert.Error(t, err)
}

func TestConcurrentInvoiceCreationAllocatesUniqueNumbers(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	userID := tdb.CreateTestUser("race@example.com")
	p := tdb.CreateTestProject(userID, "Consulting", "Acme Corp")

	invoiceRepo := persistence.NewGormInvoiceRepository(tdb.DB)
	projectRepo := persistence.NewGormProjectRepository(tdb.DB)
	svc := billingapp.NewInvoiceService(invoiceRepo, projectRepo)

	const workers = 8

	var g errgroup.Group
	results := make([]*billing.Invoice, workers)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			inv, err := svc.CreateInvoice(ctx, userID, invoiceRequest(p.ID))
			if err != nil {
				return err
			}
			results[i] = inv
			return nil
		})
	}
	require.NoError(t, g.Wait(), "every concurrent create should win a number within its retries")

	seen := make(map[string]bool, workers)
	for _, inv := range results {
		require.NotNil(t, inv)
		assert.False(t, seen[inv.InvoiceNumber], "duplicate number %s", inv.InvoiceNumber)
		seen[inv.InvoiceNumber] = true
	}
	assert.Len(t, seen, workers)
}

func TestFindAllByIDsForUserFiltersForeignInvoices(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	aliceID := tdb.CreateTestUser("alice2@example.com")
	bobID := tdb.CreateTestUser("bob2@example.com")
	aliceProject := tdb.CreateTestProject(aliceID, "SEO Audit", "Acme Corp")
	bobProject := tdb.CreateTestProject(bobID, "Migration", "Globex Inc")

	invoiceRepo := persistence.NewGormInvoiceRepository(tdb.DB)
	projectRepo := persistence.NewGormProjectRepository(tdb.DB)
	svc := billingapp.NewInvoiceService(invoiceRepo, projectRepo)

	aliceInv, err := svc.CreateInvoice(ctx, aliceID, invoiceRequest(aliceProject.ID))
	require.NoError(t, err)
	bobInv, err := svc.CreateInvoice(ctx, bobID, invoiceRequest(bobProject.ID))
	require.NoError(t, err)

	found, err := invoiceRepo.FindAllByIDsForUser(ctx, aliceID, []uuid.UUID{aliceInv.ID, bobInv.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, aliceInv.ID, found[0].ID)
}
