package project

import (
	"context"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectRepository defines persistence operations for projects
type ProjectRepository interface {
	shared.OwnedRepository[Project]

	// CountByStatusForUser returns project counts grouped by status.
	CountByStatusForUser(ctx context.Context, userID uuid.UUID) (map[ProjectStatus]int64, error)
}
