package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freelancedesk/backend/internal/domain/project"
	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/infrastructure/logger"
)

// ProjectService provides application-level project operations
type ProjectService struct {
	projectRepo project.ProjectRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo project.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Title       string           `json:"title" binding:"required"`
	ClientName  string           `json:"client_name" binding:"required"`
	ClientEmail string           `json:"client_email" binding:"omitempty,email"`
	Description string           `json:"description"`
	Budget      *decimal.Decimal `json:"budget"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
}

// UpdateProjectRequest represents a request to update a project
type UpdateProjectRequest struct {
	Title       string           `json:"title" binding:"required"`
	ClientName  string           `json:"client_name" binding:"required"`
	ClientEmail string           `json:"client_email" binding:"omitempty,email"`
	Description string           `json:"description"`
	Status      string           `json:"status" binding:"omitempty,oneof=active completed on-hold"`
	Budget      *decimal.Decimal `json:"budget"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
}

// ProjectListFilter defines filtering options for project list queries
type ProjectListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CreateProject creates a new project owned by userID
func (s *ProjectService) CreateProject(ctx context.Context, userID uuid.UUID, req CreateProjectRequest) (*project.Project, error) {
	p, err := project.NewProject(userID, req.Title, req.ClientName)
	if err != nil {
		return nil, err
	}
	p.ClientEmail = req.ClientEmail
	p.Description = req.Description
	if req.Budget != nil {
		if err := p.SetBudget(*req.Budget); err != nil {
			return nil, err
		}
	}
	if err := p.SetSchedule(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("title", p.Title))
	return p, nil
}

// GetProject fetches a project owned by userID
func (s *ProjectService) GetProject(ctx context.Context, userID, id uuid.UUID) (*project.Project, error) {
	return s.projectRepo.FindByIDForUser(ctx, userID, id)
}

// ListProjects returns a page of the user's projects
func (s *ProjectService) ListProjects(ctx context.Context, userID uuid.UUID, filter ProjectListFilter) (*shared.Paginated[project.Project], error) {
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

	projects, err := s.projectRepo.FindAllForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.projectRepo.CountForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(projects, total, f.Page, f.PageSize)
	return &page, nil
}

// UpdateProject applies editable fields to a project owned by userID
func (s *ProjectService) UpdateProject(ctx context.Context, userID, id uuid.UUID, req UpdateProjectRequest) (*project.Project, error) {
	p, err := s.projectRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := p.Update(req.Title, req.ClientName, req.ClientEmail, req.Description); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if err := p.ChangeStatus(project.ProjectStatus(req.Status)); err != nil {
			return nil, err
		}
	}
	if req.Budget != nil {
		if err := p.SetBudget(*req.Budget); err != nil {
			return nil, err
		}
	}
	if err := p.SetSchedule(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project owned by userID. Invoices issued against
// it keep their snapshot and survive the delete.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, id uuid.UUID) error {
	return s.projectRepo.DeleteForUser(ctx, userID, id)
}
