package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/domain/shared"
	"github.com/profitboard/backend/internal/infrastructure/persistence/models"
)

// GormSessionStore keeps the single platform session in a config-entry
// slot, so a restart reuses it instead of burning a fresh login.
type GormSessionStore struct {
	db  *gorm.DB
	key string
}

// Compile-time interface check
var _ costsync.SessionStore = (*GormSessionStore)(nil)

// NewGormSessionStore creates a session store over the given slot key.
func NewGormSessionStore(db *gorm.DB, key string) *GormSessionStore {
	return &GormSessionStore{db: db, key: key}
}

// Load returns the persisted session, or shared.ErrNotFound when the
// slot is empty.
func (s *GormSessionStore) Load(ctx context.Context) (*costsync.Session, error) {
	var entry models.ConfigEntry
	err := s.db.WithContext(ctx).Where("key = ?", s.key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session slot: %w", err)
	}

	var session costsync.Session
	if err := json.Unmarshal([]byte(entry.Value), &session); err != nil {
		return nil, fmt.Errorf("decode session slot: %w", err)
	}
	return &session, nil
}

// Save overwrites the slot with the given session.
func (s *GormSessionStore) Save(ctx context.Context, session *costsync.Session) error {
	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	entry := models.ConfigEntry{
		Key:       s.key,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save session slot: %w", err)
	}
	return nil
}
