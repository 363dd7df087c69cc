package cache

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/config"
	"github.com/profitboard/backend/internal/infrastructure/persistence"
)

// SessionStoreFactory creates session stores based on configuration
type SessionStoreFactory struct {
	easybossConfig config.EasyBossConfig
	redisConfig    config.RedisConfig
	db             *gorm.DB
	logger         *zap.Logger
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.logger = logger
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(easybossCfg config.EasyBossConfig, redisCfg config.RedisConfig, db *gorm.DB, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		easybossConfig: easybossCfg,
		redisConfig:    redisCfg,
		db:             db,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore creates a session store according to easyboss.session_store.
// The database-backed store is the default; Redis is opt-in for deployments
// that run more than one instance against the same platform account.
func (f *SessionStoreFactory) CreateStore() (costsync.SessionStore, error) {
	switch f.easybossConfig.SessionStore {
	case config.SessionStoreRedis:
		store, err := NewRedisSessionStore(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		}, f.easybossConfig.SessionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis session store: %w", err)
		}
		f.logger.Info("using Redis session store")
		return store, nil
	case config.SessionStoreDatabase, "":
		f.logger.Info("using database session store")
		return persistence.NewGormSessionStore(f.db, f.easybossConfig.SessionKey), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", f.easybossConfig.SessionStore)
	}
}
