package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/events"
	"github.com/aliyusifov99/inventory-management/internal/repository"
	"github.com/aliyusifov99/inventory-management/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var epoch = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

// tickingClock advances by step on every reading
type tickingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newClock() *tickingClock {
	return &tickingClock{now: epoch, step: time.Second}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *tickingClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *capturePublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

func openSQLiteStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(filepath.Join(t.TempDir(), "ledger.db"))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return repository.NewGormStore(db)
}

type fixture struct {
	store     repository.Store
	clock     *tickingClock
	publisher *capturePublisher
	logs      *test.Hook
	inventory InventoryService
	dashboard DashboardService
}

func newFixture(t *testing.T, store repository.Store) *fixture {
	t.Helper()
	log, hook := quietLogger()
	f := &fixture{
		store:     store,
		clock:     newClock(),
		publisher: &capturePublisher{},
		logs:      hook,
	}
	opts := []Option{WithClock(f.clock.Now), WithLogger(log)}
	f.inventory = NewInventoryService(store, f.publisher, opts...)
	f.dashboard = NewDashboardService(store, opts...)
	return f
}

var backends = map[string]func(t *testing.T) repository.Store{
	"memory": func(*testing.T) repository.Store { return repository.NewMemoryStore() },
	"sqlite": openSQLiteStore,
}
