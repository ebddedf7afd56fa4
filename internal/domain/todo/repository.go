package todo

import (
	"context"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TodoRepository defines persistence operations for todos
type TodoRepository interface {
	shared.OwnedRepository[Todo]

	// CountOpenAndDoneForUser returns the number of open and done todos.
	CountOpenAndDoneForUser(ctx context.Context, userID uuid.UUID) (open, done int64, err error)
}
