package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/config"
	"github.com/profitboard/backend/internal/infrastructure/persistence"
	"github.com/profitboard/backend/internal/infrastructure/persistence/models"
)

func setupFactoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ConfigEntry{}))
	return db
}

func TestSessionStoreFactory(t *testing.T) {
	t.Run("database store by default", func(t *testing.T) {
		factory := NewSessionStoreFactory(
			config.EasyBossConfig{SessionStore: config.SessionStoreDatabase, SessionKey: "easyboss_cookie"},
			config.RedisConfig{},
			setupFactoryDB(t),
		)

		store, err := factory.CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &persistence.GormSessionStore{}, store)
	})

	t.Run("empty backend falls back to database", func(t *testing.T) {
		factory := NewSessionStoreFactory(
			config.EasyBossConfig{SessionKey: "easyboss_cookie"},
			config.RedisConfig{},
			setupFactoryDB(t),
		)

		store, err := factory.CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &persistence.GormSessionStore{}, store)
	})

	t.Run("database store roundtrips a session", func(t *testing.T) {
		factory := NewSessionStoreFactory(
			config.EasyBossConfig{SessionStore: config.SessionStoreDatabase, SessionKey: "easyboss_cookie"},
			config.RedisConfig{},
			setupFactoryDB(t),
		)

		store, err := factory.CreateStore()
		require.NoError(t, err)

		ctx := context.Background()
		session := &costsync.Session{Token: "SESSION=abc", IssuedAt: time.Now().UTC()}
		require.NoError(t, store.Save(ctx, session))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SESSION=abc", loaded.Token)
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		factory := NewSessionStoreFactory(
			config.EasyBossConfig{SessionStore: "memcached"},
			config.RedisConfig{},
			setupFactoryDB(t),
		)

		_, err := factory.CreateStore()
		assert.ErrorContains(t, err, "unknown session store")
	})
}
