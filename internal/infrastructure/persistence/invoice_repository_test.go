package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freelancedesk/backend/internal/domain/billing"
	"github.com/freelancedesk/backend/internal/domain/shared"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&billing.Invoice{}, &billing.InvoiceItem{})
	require.NoError(t, err)

	return db
}

func draftFor(title string) billing.InvoiceDraft {
	return billing.InvoiceDraft{
		ProjectID:    uuid.New(),
		ProjectTitle: title,
		BilledToName: "Acme Corp",
		Items: []billing.ItemDraft{
			{
				Description: "Design work",
				Quantity:    decimal.NewFromInt(10),
				Rate:        decimal.NewFromInt(100),
				Amount:      decimal.NewFromInt(1000),
			},
		},
		TaxPercent: decimal.NewFromInt(10),
		Subtotal:   decimal.NewFromInt(1000),
		Total:      decimal.NewFromInt(1100),
	}
}

func mustInvoice(t *testing.T, userID uuid.UUID, number string) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(userID, number, draftFor("Website redesign"))
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository_GenerateInvoiceNumber(t *testing.T) {
	ctx := context.Background()
	prefix := billing.PeriodPrefix(time.Now())

	t.Run("first number of the period is 001", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))

		number, err := repo.GenerateInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-001", number)
	})

	t.Run("increments past the highest existing number", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
		userID := uuid.New()

		for _, seq := range []int{1, 2, 3} {
			inv := mustInvoice(t, userID, billing.FormatNumber(prefix, seq))
			require.NoError(t, repo.Save(ctx, inv))
		}

		number, err := repo.GenerateInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-004", number)
	})

	t.Run("new period restarts at 001 despite prior months", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))

		firstOfMonth := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
		priorPrefix := billing.PeriodPrefix(firstOfMonth.AddDate(0, 0, -1))

		inv := mustInvoice(t, uuid.New(), billing.FormatNumber(priorPrefix, 50))
		require.NoError(t, repo.Save(ctx, inv))

		number, err := repo.GenerateInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-001", number)
	})

	t.Run("failed scan degrades to the period's first number", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{
			Conn:       mockDB,
			DriverName: "postgres",
		}), &gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)
		repo := NewGormInvoiceRepository(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "invoices"`).WillReturnError(sql.ErrConnDone)

		number, err := repo.GenerateInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scans across all users", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))

		inv := mustInvoice(t, uuid.New(), billing.FormatNumber(prefix, 7))
		require.NoError(t, repo.Save(ctx, inv))

		number, err := repo.GenerateInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-008", number)
	})

	t.Run("deleting the highest number makes it available again", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
		userID := uuid.New()

		keep := mustInvoice(t, userID, billing.FormatNumber(prefix, 1))
		require.NoError(t, repo.Save(ctx, keep))
		gone := mustInvoice(t, userID, billing.FormatNumber(prefix, 2))
		require.NoError(t, repo.Save(ctx, gone))
		require.NoError(t, repo.DeleteForUser(ctx, userID, gone.ID))

		number, err := repo.GenerateInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, prefix+"-002", number)
	})

	t.Run("period sequence exhausts at 999", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))

		inv := mustInvoice(t, uuid.New(), billing.FormatNumber(prefix, 999))
		require.NoError(t, repo.Save(ctx, inv))

		_, err := repo.GenerateInvoiceNumber(ctx)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SEQUENCE_EXHAUSTED", domainErr.Code)
	})
}

func TestGormInvoiceRepository_Save(t *testing.T) {
	ctx := context.Background()
	prefix := billing.PeriodPrefix(time.Now())

	t.Run("persists invoice with ordered items", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
		userID := uuid.New()

		draft := draftFor("Website redesign")
		draft.Items = append(draft.Items, billing.ItemDraft{
			Description: "Extra revisions",
			Quantity:    decimal.NewFromInt(2),
			Rate:        decimal.NewFromInt(250),
			Amount:      decimal.NewFromInt(500),
		})
		draft.Subtotal = decimal.NewFromInt(1500)
		draft.Total = decimal.NewFromInt(1650)

		inv, err := billing.NewInvoice(userID, billing.FormatNumber(prefix, 1), draft)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByIDForUser(ctx, userID, inv.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 2)
		assert.Equal(t, 1, found.Items[0].Position)
		assert.Equal(t, "Design work", found.Items[0].Description)
		assert.Equal(t, 2, found.Items[1].Position)
	})

	t.Run("duplicate invoice number maps to ErrDuplicateNumber", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
		number := billing.FormatNumber(prefix, 5)

		first := mustInvoice(t, uuid.New(), number)
		require.NoError(t, repo.Save(ctx, first))

		second := mustInvoice(t, uuid.New(), number)
		err := repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrDuplicateNumber)
	})

	t.Run("rejects tampered totals at the write boundary", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))

		inv := mustInvoice(t, uuid.New(), billing.FormatNumber(prefix, 9))
		inv.Total = decimal.NewFromInt(9999)

		err := repo.Save(ctx, inv)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "TOTAL_MISMATCH", domainErr.Code)
	})

	t.Run("update keeps the same invoice number", func(t *testing.T) {
		repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
		userID := uuid.New()

		inv := mustInvoice(t, userID, billing.FormatNumber(prefix, 11))
		require.NoError(t, repo.Save(ctx, inv))

		require.NoError(t, inv.UpdateBilledToName("New Client Ltd"))
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByIDForUser(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "New Client Ltd", found.BilledToName)
		assert.Equal(t, inv.InvoiceNumber, found.InvoiceNumber)
	})
}

func TestGormInvoiceRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	prefix := billing.PeriodPrefix(time.Now())
	repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))

	owner := uuid.New()
	stranger := uuid.New()

	mine := mustInvoice(t, owner, billing.FormatNumber(prefix, 1))
	require.NoError(t, repo.Save(ctx, mine))
	theirs := mustInvoice(t, stranger, billing.FormatNumber(prefix, 2))
	require.NoError(t, repo.Save(ctx, theirs))

	t.Run("foreign invoice behaves like a missing one", func(t *testing.T) {
		_, err := repo.FindByIDForUser(ctx, owner, theirs.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("foreign ids vanish from batch lookups", func(t *testing.T) {
		found, err := repo.FindAllByIDsForUser(ctx, owner, []uuid.UUID{mine.ID, theirs.ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, mine.ID, found[0].ID)
	})

	t.Run("foreign delete reports not found and leaves the row", func(t *testing.T) {
		err := repo.DeleteForUser(ctx, owner, theirs.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByIDForUser(ctx, stranger, theirs.ID)
		assert.NoError(t, err)
	})

	t.Run("listing only returns own invoices", func(t *testing.T) {
		found, err := repo.FindAllForUser(ctx, owner, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, mine.ID, found[0].ID)
	})
}

func TestGormInvoiceRepository_CountByStatusForUser(t *testing.T) {
	ctx := context.Background()
	prefix := billing.PeriodPrefix(time.Now())
	repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
	userID := uuid.New()

	for i, status := range []billing.InvoiceStatus{
		billing.InvoiceStatusPending,
		billing.InvoiceStatusPending,
		billing.InvoiceStatusPaid,
	} {
		inv := mustInvoice(t, userID, billing.FormatNumber(prefix, i+1))
		require.NoError(t, inv.ChangeStatus(status))
		require.NoError(t, repo.Save(ctx, inv))
	}

	counts, err := repo.CountByStatusForUser(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts[billing.InvoiceStatusPending].Count)
	assert.Equal(t, int64(1), counts[billing.InvoiceStatusPaid].Count)
	assert.Empty(t, counts[billing.InvoiceStatusOverdue].Count)
}

func TestGormInvoiceRepository_FindRecentForUser(t *testing.T) {
	ctx := context.Background()
	prefix := billing.PeriodPrefix(time.Now())
	repo := NewGormInvoiceRepository(setupInvoiceTestDB(t))
	userID := uuid.New()

	for i := 1; i <= 7; i++ {
		inv := mustInvoice(t, userID, billing.FormatNumber(prefix, i))
		inv.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, inv))
	}

	recent, err := repo.FindRecentForUser(ctx, userID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)

	// Newest first.
	assert.Equal(t, fmt.Sprintf("%s-%03d", prefix, 7), recent[0].InvoiceNumber)
}
