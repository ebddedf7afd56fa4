package dashboard

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/freelancedesk/backend/internal/domain/billing"
	"github.com/freelancedesk/backend/internal/domain/project"
	"github.com/freelancedesk/backend/internal/domain/shared/valueobject"
	"github.com/freelancedesk/backend/internal/domain/todo"
)

// recentInvoiceLimit bounds the recent-activity list on the dashboard.
const recentInvoiceLimit = 5

// DashboardService assembles the summary view from the per-aggregate
// rollup queries.
type DashboardService struct {
	invoiceRepo billing.InvoiceRepository
	projectRepo project.ProjectRepository
	todoRepo    todo.TodoRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(invoiceRepo billing.InvoiceRepository, projectRepo project.ProjectRepository, todoRepo todo.TodoRepository) *DashboardService {
	return &DashboardService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		todoRepo:    todoRepo,
	}
}

// InvoiceSummary is the per-status invoice rollup
type InvoiceSummary struct {
	PendingCount  int64  `json:"pending_count"`
	PendingTotal  string `json:"pending_total"`
	PaidCount     int64  `json:"paid_count"`
	PaidTotal     string `json:"paid_total"`
	OverdueCount  int64  `json:"overdue_count"`
	OverdueTotal  string `json:"overdue_total"`
	TotalInvoiced string `json:"total_invoiced"`
}

// ProjectSummary is the per-status project rollup
type ProjectSummary struct {
	ActiveCount    int64 `json:"active_count"`
	CompletedCount int64 `json:"completed_count"`
	OnHoldCount    int64 `json:"on_hold_count"`
}

// TodoSummary is the open/done todo rollup
type TodoSummary struct {
	OpenCount int64 `json:"open_count"`
	DoneCount int64 `json:"done_count"`
}

// RecentInvoice is one row of the dashboard's recent-activity list
type RecentInvoice struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	BilledToName  string    `json:"billed_to_name"`
	Total         string    `json:"total"`
	Status        string    `json:"status"`
	CreatedAt     string    `json:"created_at"`
}

// Summary is the full dashboard payload
type Summary struct {
	Invoices       InvoiceSummary  `json:"invoices"`
	Projects       ProjectSummary  `json:"projects"`
	Todos          TodoSummary     `json:"todos"`
	RecentInvoices []RecentInvoice `json:"recent_invoices"`
}

// GetSummary runs the four rollup queries concurrently and merges the
// results. Any single failure fails the whole summary.
func (s *DashboardService) GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	var (
		invoiceAgg map[billing.InvoiceStatus]billing.StatusAggregate
		projectAgg map[project.ProjectStatus]int64
		openTodos  int64
		doneTodos  int64
		recent     []billing.Invoice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoiceAgg, err = s.invoiceRepo.CountByStatusForUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		projectAgg, err = s.projectRepo.CountByStatusForUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		openTodos, doneTodos, err = s.todoRepo.CountOpenAndDoneForUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.invoiceRepo.FindRecentForUser(gctx, userID, recentInvoiceLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Invoices: invoiceSummary(invoiceAgg),
		Projects: ProjectSummary{
			ActiveCount:    projectAgg[project.ProjectStatusActive],
			CompletedCount: projectAgg[project.ProjectStatusCompleted],
			OnHoldCount:    projectAgg[project.ProjectStatusOnHold],
		},
		Todos: TodoSummary{
			OpenCount: openTodos,
			DoneCount: doneTodos,
		},
		RecentInvoices: make([]RecentInvoice, len(recent)),
	}
	for i, inv := range recent {
		summary.RecentInvoices[i] = RecentInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			BilledToName:  inv.BilledToName,
			Total:         inv.Total.StringFixed(2),
			Status:        inv.Status.String(),
			CreatedAt:     inv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return summary, nil
}

func invoiceSummary(agg map[billing.InvoiceStatus]billing.StatusAggregate) InvoiceSummary {
	get := func(status billing.InvoiceStatus) (int64, valueobject.Money) {
		entry, ok := agg[status]
		if !ok {
			return 0, valueobject.ZeroUSD()
		}
		total, err := valueobject.NewMoneyUSDFromString(entry.Total)
		if err != nil {
			total = valueobject.ZeroUSD()
		}
		return entry.Count, total
	}

	pendingCount, pendingTotal := get(billing.InvoiceStatusPending)
	paidCount, paidTotal := get(billing.InvoiceStatusPaid)
	overdueCount, overdueTotal := get(billing.InvoiceStatusOverdue)

	return InvoiceSummary{
		PendingCount:  pendingCount,
		PendingTotal:  pendingTotal.StringFixed(2),
		PaidCount:     paidCount,
		PaidTotal:     paidTotal.StringFixed(2),
		OverdueCount:  overdueCount,
		OverdueTotal:  overdueTotal.StringFixed(2),
		TotalInvoiced: pendingTotal.MustAdd(paidTotal).MustAdd(overdueTotal).StringFixed(2),
	}
}
