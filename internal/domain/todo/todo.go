package todo

import (
	"strings"
	"time"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Todo is a single task on the owner's work list, optionally tied to a project.
type Todo struct {
	shared.OwnedEntity
	Title     string     `gorm:"type:varchar(200);not null" json:"title"`
	Notes     string     `gorm:"type:text" json:"notes"`
	Done      bool       `gorm:"not null;default:false" json:"done"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
}

// TableName returns the database table name for todos
func (Todo) TableName() string {
	return "todos"
}

// NewTodo creates a new open todo for the given owner
func NewTodo(userID uuid.UUID, title string) (*Todo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "todo title is required")
	}
	return &Todo{
		OwnedEntity: shared.NewOwnedEntity(userID),
		Title:       title,
	}, nil
}

// Update applies editable fields
func (t *Todo) Update(title, notes string, dueDate *time.Time, projectID *uuid.UUID) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewDomainError("INVALID_INPUT", "todo title is required")
	}
	t.Title = title
	t.Notes = notes
	t.DueDate = dueDate
	t.ProjectID = projectID
	t.UpdatedAt = time.Now()
	return nil
}

// Toggle flips the done flag
func (t *Todo) Toggle() {
	t.Done = !t.Done
	t.UpdatedAt = time.Now()
}
