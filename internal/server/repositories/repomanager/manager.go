// Package repomanager binds the typed collections used by the services to
// a document store and declares their indexes.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/folio/internal/server/docstore"
	"github.com/dmitrijs2005/folio/internal/server/models"
)

type RepositoryManager interface {
	Accounts() docstore.Collection[models.Account]
	RefreshTokens() docstore.Collection[models.RefreshToken]
	AccessLogs() docstore.Collection[models.AccessLogEntry]
	Posts() docstore.Collection[models.Post]
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Indexes lists the indexes of every collection.
var Indexes = map[string][]docstore.Index{
	models.AccountsCollection: {
		{Field: models.AccountUsername, Unique: true},
		{Field: models.AccountVerificationToken, Unique: true, Sparse: true},
	},
	models.RefreshTokensCollection: {
		{Field: models.RefreshTokenUsername, Unique: true},
	},
	models.AccessLogsCollection: {
		{Field: models.AccessLogTime},
	},
}

// StoreRepositoryManager vends collections of a single docstore.Store.
type StoreRepositoryManager struct {
	store         docstore.Store
	accounts      docstore.Collection[models.Account]
	refreshTokens docstore.Collection[models.RefreshToken]
	accessLogs    docstore.Collection[models.AccessLogEntry]
	posts         docstore.Collection[models.Post]
}

func NewRepositoryManager(store docstore.Store) *StoreRepositoryManager {
	return &StoreRepositoryManager{
		store:         store,
		accounts:      docstore.Bind[models.Account](store, models.AccountsCollection),
		refreshTokens: docstore.Bind[models.RefreshToken](store, models.RefreshTokensCollection),
		accessLogs:    docstore.Bind[models.AccessLogEntry](store, models.AccessLogsCollection),
		posts:         docstore.Bind[models.Post](store, models.PostsCollection),
	}
}

func (m *StoreRepositoryManager) Accounts() docstore.Collection[models.Account] {
	return m.accounts
}

func (m *StoreRepositoryManager) RefreshTokens() docstore.Collection[models.RefreshToken] {
	return m.refreshTokens
}

func (m *StoreRepositoryManager) AccessLogs() docstore.Collection[models.AccessLogEntry] {
	return m.accessLogs
}

func (m *StoreRepositoryManager) Posts() docstore.Collection[models.Post] {
	return m.posts
}

// EnsureIndexes creates the indexes listed in Indexes.
func (m *StoreRepositoryManager) EnsureIndexes(ctx context.Context) error {
	for _, name := range []string{models.AccountsCollection, models.RefreshTokensCollection, models.AccessLogsCollection} {
		if err := m.store.EnsureIndexes(ctx, name, Indexes[name]...); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (m *StoreRepositoryManager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *StoreRepositoryManager) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}
