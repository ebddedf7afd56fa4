package project

import (
	"strings"
	"time"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
)

// IsValid checks if the status is a valid ProjectStatus
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusOnHold:
		return true
	}
	return false
}

// String returns the string representation of ProjectStatus
func (s ProjectStatus) String() string {
	return string(s)
}

// Project is an aggregate root representing one client engagement.
// Invoices snapshot the title and client name at issue time, so later edits
// here never touch already-issued invoices.
type Project struct {
	shared.OwnedEntity
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	ClientName  string          `gorm:"type:varchar(200);not null" json:"client_name"`
	ClientEmail string          `gorm:"type:varchar(254)" json:"client_email"`
	Description string          `gorm:"type:text" json:"description"`
	Status      ProjectStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Budget      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"budget"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
}

// TableName returns the database table name for projects
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new active project for the given owner
func NewProject(userID uuid.UUID, title, clientName string) (*Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "project title is required")
	}
	if strings.TrimSpace(clientName) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "client name is required")
	}
	return &Project{
		OwnedEntity: shared.NewOwnedEntity(userID),
		Title:       title,
		ClientName:  clientName,
		Status:      ProjectStatusActive,
		Budget:      decimal.Zero,
	}, nil
}

// Update applies editable fields. Empty title or client name is rejected;
// other fields may be cleared.
func (p *Project) Update(title, clientName, clientEmail, description string) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewDomainError("INVALID_INPUT", "project title is required")
	}
	if strings.TrimSpace(clientName) == "" {
		return shared.NewDomainError("INVALID_INPUT", "client name is required")
	}
	p.Title = title
	p.ClientName = clientName
	p.ClientEmail = clientEmail
	p.Description = description
	p.UpdatedAt = time.Now()
	return nil
}

// ChangeStatus moves the project to the given status
func (p *Project) ChangeStatus(status ProjectStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "unknown project status")
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// SetBudget sets the project budget; negative budgets are rejected
func (p *Project) SetBudget(budget decimal.Decimal) error {
	if budget.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "budget cannot be negative")
	}
	p.Budget = budget
	p.UpdatedAt = time.Now()
	return nil
}

// SetSchedule sets the start and end dates. End before start is rejected.
func (p *Project) SetSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewDomainError("INVALID_INPUT", "end date cannot be before start date")
	}
	p.StartDate = start
	p.EndDate = end
	p.UpdatedAt = time.Now()
	return nil
}
