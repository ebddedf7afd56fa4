package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedEntity is a base entity that belongs to a single user.
// Every query touching an owned entity folds the owner into the filter,
// which makes "not found" and "not yours" indistinguishable at the boundary.
type OwnedEntity struct {
	BaseEntity
	UserID uuid.UUID `gorm:"type:uuid;index:idx_owner_created,priority:1" json:"user_id"`
}

// GetUserID returns the owning user ID
func (e *OwnedEntity) GetUserID() uuid.UUID {
	return e.UserID
}

// NewOwnedEntity creates a new owned entity for the given user
func NewOwnedEntity(userID uuid.UUID) OwnedEntity {
	return OwnedEntity{
		BaseEntity: NewBaseEntity(),
		UserID:     userID,
	}
}
