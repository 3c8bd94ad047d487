package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/auth"
	"github.com/dmitrijs2005/folio/internal/server/docstore"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestManager(t *testing.T) *repomanager.StoreRepositoryManager {
	t.Helper()
	m := repomanager.NewRepositoryManager(docstore.NewMemoryStore())
	require.NoError(t, m.EnsureIndexes(context.Background()))
	return m
}

func newTestTokens() *auth.TokenService {
	return auth.NewTokenService(testAccessSecret, testRefreshSecret, time.Minute, time.Hour)
}

func newAccountService(t *testing.T, m repomanager.RepositoryManager) *AccountService {
	t.Helper()
	return NewAccountService(m, newTestTokens(), auth.NewBcryptHasher(bcrypt.MinCost), discardLogger())
}

var errDown = errors.New("connection refused")

// failingCollection fails every call with errDown.
type failingCollection[T any] struct{}

func (failingCollection[T]) Insert(context.Context, T) (docstore.InsertResult, error) {
	return docstore.InsertResult{}, errDown
}

func (failingCollection[T]) Find(context.Context, docstore.Filter, ...docstore.FindOption) ([]T, error) {
	return nil, errDown
}

func (failingCollection[T]) FindOne(context.Context, docstore.Filter, ...docstore.FindOption) (T, bool, error) {
	var zero T
	return zero, false, errDown
}

func (failingCollection[T]) Update(context.Context, docstore.Filter, docstore.Update) (docstore.UpdateResult, error) {
	return docstore.UpdateResult{}, errDown
}

func (failingCollection[T]) Delete(context.Context, docstore.Filter) (docstore.DeleteResult, error) {
	return docstore.DeleteResult{}, errDown
}

func (failingCollection[T]) Upsert(context.Context, docstore.Filter, T) (docstore.UpdateResult, error) {
	return docstore.UpdateResult{}, errDown
}

// brokenManager serves working collections except for those overridden.
type brokenManager struct {
	repomanager.RepositoryManager
	accounts      docstore.Collection[models.Account]
	refreshTokens docstore.Collection[models.RefreshToken]
	accessLogs    docstore.Collection[models.AccessLogEntry]
	posts         docstore.Collection[models.Post]
}

func (b *brokenManager) Accounts() docstore.Collection[models.Account] {
	if b.accounts != nil {
		return b.accounts
	}
	return b.RepositoryManager.Accounts()
}

func (b *brokenManager) RefreshTokens() docstore.Collection[models.RefreshToken] {
	if b.refreshTokens != nil {
		return b.refreshTokens
	}
	return b.RepositoryManager.RefreshTokens()
}

func (b *brokenManager) AccessLogs() docstore.Collection[models.AccessLogEntry] {
	if b.accessLogs != nil {
		return b.accessLogs
	}
	return b.RepositoryManager.AccessLogs()
}

func (b *brokenManager) Posts() docstore.Collection[models.Post] {
	if b.posts != nil {
		return b.posts
	}
	return b.RepositoryManager.Posts()
}
