package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/freelancedesk/backend/internal/domain/todo"
)

// GormTodoRepository implements todo.TodoRepository using GORM
type GormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GormTodoRepository
func NewGormTodoRepository(db *gorm.DB) *GormTodoRepository {
	return &GormTodoRepository{db: db}
}

// FindByID finds a todo by its ID regardless of owner
func (r *GormTodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*todo.Todo, error) {
	var t todo.Todo
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindByIDForUser finds a todo by ID scoped to its owner
func (r *GormTodoRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*todo.Todo, error) {
	var t todo.Todo
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAllForUser finds all todos for a user matching the filter
func (r *GormTodoRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]todo.Todo, error) {
	var todos []todo.Todo
	query := applyFilter(
		r.db.WithContext(ctx).Model(&todo.Todo{}).Where("user_id = ?", userID),
		filter, todoSortColumns,
	)
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}
	if done, ok := filter.Filters["done"]; ok {
		query = query.Where("done = ?", done)
	}
	if projectID, ok := filter.Filters["project_id"]; ok {
		query = query.Where("project_id = ?", projectID)
	}

	if err := query.Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

// CountForUser counts todos for a user matching the filter
func (r *GormTodoRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&todo.Todo{}).Where("user_id = ?", userID)
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}
	if done, ok := filter.Filters["done"]; ok {
		query = query.Where("done = ?", done)
	}
	if projectID, ok := filter.Filters["project_id"]; ok {
		query = query.Where("project_id = ?", projectID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists a todo
func (r *GormTodoRepository) Save(ctx context.Context, t *todo.Todo) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Delete removes a todo by ID regardless of owner
func (r *GormTodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&todo.Todo{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteForUser removes a todo owned by userID
func (r *GormTodoRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&todo.Todo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountOpenAndDoneForUser returns the number of open and done todos
func (r *GormTodoRepository) CountOpenAndDoneForUser(ctx context.Context, userID uuid.UUID) (open, done int64, err error) {
	type row struct {
		Done  bool
		Count int64
	}
	var rows []row
	err = r.db.WithContext(ctx).
		Model(&todo.Todo{}).
		Select("done, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("done").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}

	for _, r := range rows {
		if r.Done {
			done = r.Count
		} else {
			open = r.Count
		}
	}
	return open, done, nil
}

var todoSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"title":      true,
}

var _ todo.TodoRepository = (*GormTodoRepository)(nil)
