package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/freelancedesk/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is the aggregate root for an account. Every other aggregate in the
// system is scoped to exactly one user.
type User struct {
	shared.BaseEntity
	Email        string     `gorm:"type:varchar(254);not null;uniqueIndex" json:"email"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	PasswordHash string     `gorm:"type:varchar(100);not null" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// TableName returns the database table name for users
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user with a hashed password
func NewUser(email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "email address is not valid")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "name is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}, nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps the last successful login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.UpdatedAt = time.Now()
}

// ChangePassword replaces the stored hash after validating the new password
func (u *User) ChangePassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	return nil
}

// validatePassword enforces the minimum password policy
func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return shared.NewDomainError("WEAK_PASSWORD", "password must be at most 72 characters")
	}
	return nil
}
