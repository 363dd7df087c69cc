package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/profitboard/backend/internal/domain/identity"
	"github.com/profitboard/backend/internal/domain/shared"
	"github.com/profitboard/backend/internal/infrastructure/persistence/models"
)

// UserRepository persists dashboard accounts.
type UserRepository struct {
	db *gorm.DB
}

// Compile-time interface check
var _ identity.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Save upserts the user keyed on its ID.
func (r *UserRepository) Save(ctx context.Context, user *identity.User) error {
	model := toUserModel(user)
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "password_hash", "last_login_at", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// FindByID returns the user or shared.ErrNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return toUserDomain(&model), nil
}

// FindByUsername returns the user or shared.ErrNotFound. Lookup is
// case-insensitive; usernames are stored lowercased.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.User
	err := r.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return toUserDomain(&model), nil
}

func toUserModel(u *identity.User) *models.User {
	return &models.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserDomain(m *models.User) *identity.User {
	return &identity.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		LastLoginAt:  m.LastLoginAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
