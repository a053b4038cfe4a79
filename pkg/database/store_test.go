package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aliyusifov99/inventory-management/internal/config"
	"github.com/aliyusifov99/inventory-management/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreMemory(t *testing.T) {
	store, closeFn, err := OpenStore(config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repository.MemoryStore{}, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	store, closeFn, err := OpenStore(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: path,
		LogLevel:   "silent",
	})
	require.NoError(t, err)
	defer closeFn()

	assert.NoError(t, store.Ping(context.Background()))
	products, err := store.Products().FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestOpenRejectsNonRelationalDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:data/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("data/x.db"))
}
