package database

import (
	"github.com/aliyusifov99/inventory-management/internal/config"
	"github.com/aliyusifov99/inventory-management/internal/repository"

	"github.com/sirupsen/logrus"
)

// OpenStore returns the ledger store selected by cfg.Driver, migrated and
// ready. The returned close func releases the connection pool.
func OpenStore(cfg config.DatabaseConfig) (repository.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logrus.Warn("Using in-memory ledger store: data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		Close(db)
		return nil, nil, err
	}
	return repository.NewGormStore(db), func() { Close(db) }, nil
}
