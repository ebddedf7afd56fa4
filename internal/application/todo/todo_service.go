package todo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/freelancedesk/backend/internal/domain/project"
	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/domain/todo"
)

// TodoService provides application-level todo operations
type TodoService struct {
	todoRepo    todo.TodoRepository
	projectRepo project.ProjectRepository
}

// NewTodoService creates a new TodoService
func NewTodoService(todoRepo todo.TodoRepository, projectRepo project.ProjectRepository) *TodoService {
	return &TodoService{
		todoRepo:    todoRepo,
		projectRepo: projectRepo,
	}
}

// CreateTodoRequest represents a request to create a todo
type CreateTodoRequest struct {
	Title     string     `json:"title" binding:"required"`
	Notes     string     `json:"notes"`
	DueDate   *time.Time `json:"due_date"`
	ProjectID *uuid.UUID `json:"project_id"`
}

// UpdateTodoRequest represents a request to update a todo
type UpdateTodoRequest struct {
	Title     string     `json:"title" binding:"required"`
	Notes     string     `json:"notes"`
	DueDate   *time.Time `json:"due_date"`
	ProjectID *uuid.UUID `json:"project_id"`
}

// TodoListFilter defines filtering options for todo list queries
type TodoListFilter struct {
	Search    string     `form:"search"`
	Done      *bool      `form:"done"`
	ProjectID *uuid.UUID `form:"project_id"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// checkProject verifies the linked project exists and is owned by userID
func (s *TodoService) checkProject(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) error {
	if projectID == nil {
		return nil
	}
	_, err := s.projectRepo.FindByIDForUser(ctx, userID, *projectID)
	return err
}

// CreateTodo creates a new open todo owned by userID
func (s *TodoService) CreateTodo(ctx context.Context, userID uuid.UUID, req CreateTodoRequest) (*todo.Todo, error) {
	if err := s.checkProject(ctx, userID, req.ProjectID); err != nil {
		return nil, err
	}

	t, err := todo.NewTodo(userID, req.Title)
	if err != nil {
		return nil, err
	}
	t.Notes = req.Notes
	t.DueDate = req.DueDate
	t.ProjectID = req.ProjectID

	if err := s.todoRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTodo fetches a todo owned by userID
func (s *TodoService) GetTodo(ctx context.Context, userID, id uuid.UUID) (*todo.Todo, error) {
	return s.todoRepo.FindByIDForUser(ctx, userID, id)
}

// ListTodos returns a page of the user's todos
func (s *TodoService) ListTodos(ctx context.Context, userID uuid.UUID, filter TodoListFilter) (*shared.Paginated[todo.Todo], error) {
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
	if filter.Done != nil {
		f.Filters["done"] = *filter.Done
	}
	if filter.ProjectID != nil {
		f.Filters["project_id"] = *filter.ProjectID
	}

	todos, err := s.todoRepo.FindAllForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.todoRepo.CountForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(todos, total, f.Page, f.PageSize)
	return &page, nil
}

// UpdateTodo applies editable fields to a todo owned by userID
func (s *TodoService) UpdateTodo(ctx context.Context, userID, id uuid.UUID, req UpdateTodoRequest) (*todo.Todo, error) {
	if err := s.checkProject(ctx, userID, req.ProjectID); err != nil {
		return nil, err
	}

	t, err := s.todoRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := t.Update(req.Title, req.Notes, req.DueDate, req.ProjectID); err != nil {
		return nil, err
	}
	if err := s.todoRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ToggleTodo flips the done flag of a todo owned by userID
func (s *TodoService) ToggleTodo(ctx context.Context, userID, id uuid.UUID) (*todo.Todo, error) {
	t, err := s.todoRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	t.Toggle()
	if err := s.todoRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTodo removes a todo owned by userID
func (s *TodoService) DeleteTodo(ctx context.Context, userID, id uuid.UUID) error {
	return s.todoRepo.DeleteForUser(ctx, userID, id)
}
