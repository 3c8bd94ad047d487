package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/folio/internal/server/docstore"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects and addresses a document store.
type StoreConfig struct {
	Driver      string
	MongoURL    string
	MongoDBName string
	DatabaseDSN string
}

var (
	openMongo    = docstore.OpenMongo
	openPostgres = docstore.OpenPostgres
)

// OpenStore constructs the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case DriverMongo, "":
		return openMongo(cfg.MongoURL, cfg.MongoDBName)
	case DriverPostgres:
		return openPostgres(ctx, cfg.DatabaseDSN)
	case DriverMemory:
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Open constructs the store, wraps it in a manager and ensures indexes.
func Open(ctx context.Context, cfg StoreConfig) (*StoreRepositoryManager, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	m := NewRepositoryManager(store)
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return m, nil
}
