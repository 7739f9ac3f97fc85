package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensify/internal/config"
	"expensify/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)

	mcfg, err := FromAppConfig(&config.Config{DataBackend: "mongo", MongoURI: "mongodb://db:27017", MongoDatabase: "expensify"})
	require.NoError(t, err)
	assert.Equal(t, MongoBackend, mcfg.Type)
	assert.Equal(t, "expensify", mcfg.MongoDatabase)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "postgres"}.Validate())
	assert.Error(t, Config{Type: MongoBackend, MongoURI: "mongodb://localhost:27017"}.Validate())
	assert.NoError(t, Config{Type: MongoBackend, MongoURI: "mongodb://localhost:27017", MongoDatabase: "expensify"}.Validate())
}

func TestFactoryOpen(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.Open(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		defer res.Cleanup()

		_, err = res.Store.GetUserByID(ctx, 1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "expensify.db")
		res, err := f.Open(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		require.NoError(t, err)
		defer res.Cleanup()

		ids, err := res.Store.ListUserIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
