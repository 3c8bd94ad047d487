// Package services contains the server-side business logic. This file
// implements AccountService: signup, login, refresh, logout and the admin
// checks behind the access gate.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/auth"
	"github.com/dmitrijs2005/folio/internal/server/docstore"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/folio/internal/shared"
)

// AccountSummary is the public view of an account.
type AccountSummary struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// AccountService manages accounts and their single refresh session.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      auth.PasswordHasher
	logger      logging.Logger
}

func NewAccountService(m repomanager.RepositoryManager, tokens *auth.TokenService, hasher auth.PasswordHasher, logger logging.Logger) *AccountService {
	return &AccountService{
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		logger:      logger,
	}
}

func validateCredentials(username, password string) error {
	if err := auth.ValidateUsername(username); err != nil {
		return err
	}
	return auth.ValidatePassword(password)
}

func byUsername(username string) docstore.Filter {
	return docstore.Where(docstore.Eq(models.AccountUsername, username))
}

func (s *AccountService) findAccount(ctx context.Context, username string) (models.Account, bool, error) {
	acc, found, err := s.repomanager.Accounts().FindOne(ctx, byUsername(username))
	if err != nil {
		return models.Account{}, false, common.StorageFailure(err)
	}
	return acc, found, nil
}

// Signup creates a verified account. An unverified account with the same
// name is replaced; a verified one yields ErrExistUser. No session is
// started.
func (s *AccountService) Signup(ctx context.Context, username, password string, role models.Role) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	if role == "" {
		role = models.RoleUser
	}

	existing, found, err := s.findAccount(ctx, username)
	if err != nil {
		return err
	}
	if found {
		if existing.IsVerified {
			return common.ErrExistUser
		}
		if _, err := s.repomanager.Accounts().Delete(ctx, docstore.Where(docstore.Eq(docstore.IDField, existing.ID))); err != nil {
			return common.StorageFailure(err)
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return common.ErrInternal.Wrap(err)
	}
	verificationToken, err := shared.MakeRandHexString(shared.SecretKeySize)
	if err != nil {
		return common.ErrInternal.Wrap(err)
	}

	_, err = s.repomanager.Accounts().Insert(ctx, models.Account{
		Username:          username,
		PasswordHash:      hash,
		VerificationToken: verificationToken,
		IsVerified:        true,
		Role:              role,
		CreatedAt:         time.Now().UTC(),
	})
	if docstore.IsDuplicate(err) {
		return common.ErrExistUser
	}
	if err != nil {
		return common.StorageFailure(err)
	}

	s.logger.Info(ctx, "account created", "username", username, "role", role)
	return nil
}

// Login verifies the credentials and starts a session. The password policy
// is not applied, so any wrong password yields ErrInvalidPassword. The
// refresh record of the account is replaced atomically and earlier refresh
// tokens stop working.
func (s *AccountService) Login(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	if err := auth.ValidateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, common.ErrValidation.WithMessage("password is required")
	}

	acc, found, err := s.findAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.ErrNotExistUser
	}

	ok, err := s.hasher.Compare(acc.PasswordHash, password)
	if err != nil {
		return nil, common.ErrInternal.Wrap(err)
	}
	if !ok {
		return nil, common.ErrInvalidPassword
	}
	if !acc.IsVerified {
		return nil, common.ErrInvalidUser
	}

	pair, err := s.tokens.IssuePair(username)
	if err != nil {
		return nil, common.ErrInternal.Wrap(err)
	}
	if err := s.storeRefreshToken(ctx, username, pair.RefreshToken); err != nil {
		return nil, err
	}

	_, err = s.repomanager.Accounts().Update(ctx, docstore.Where(docstore.Eq(docstore.IDField, acc.ID)), docstore.Update{
		Inc: map[string]int64{models.AccountAccessCount: 1},
	})
	if err != nil {
		s.logger.Warn(ctx, "access count not updated", "username", username, "error", err)
	}

	return pair, nil
}

// storeRefreshToken upserts the single refresh record of username. Two
// concurrent first logins can both take the insert branch; the loser sees
// a unique violation and retries as a replace.
func (s *AccountService) storeRefreshToken(ctx context.Context, username, token string) error {
	record := models.RefreshToken{Username: username, Token: token, CreatedAt: time.Now().UTC()}
	filter := docstore.Where(docstore.Eq(models.RefreshTokenUsername, username))

	_, err := s.repomanager.RefreshTokens().Upsert(ctx, filter, record)
	if docstore.IsDuplicate(err) {
		_, err = s.repomanager.RefreshTokens().Upsert(ctx, filter, record)
	}
	return common.StorageFailure(err)
}

// decodeRefresh maps token failures to ErrInvalidRefreshToken, keeping
// expiry distinct.
func (s *AccountService) decodeRefresh(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrInvalidRefreshToken
	}
	username, err := s.tokens.DecodeRefresh(refreshToken)
	if errors.Is(err, common.ErrTokenExpired) {
		return "", err
	}
	if err != nil {
		return "", common.ErrInvalidRefreshToken.Wrap(err)
	}
	return username, nil
}

// Refresh issues a new access token for a refresh token that is still the
// stored one of its account.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	username, err := s.decodeRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	record, found, err := s.repomanager.RefreshTokens().FindOne(ctx, docstore.Where(docstore.Eq(models.RefreshTokenUsername, username)))
	if err != nil {
		return "", common.StorageFailure(err)
	}
	if !found || record.Token != refreshToken {
		return "", common.ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccess(username)
	if err != nil {
		return "", common.ErrInternal.Wrap(err)
	}
	return access, nil
}

// Logout ends the session the refresh token belongs to. Logging out twice
// is not an error.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	username, err := s.decodeRefresh(refreshToken)
	if err != nil {
		return err
	}

	_, err = s.repomanager.RefreshTokens().Delete(ctx, docstore.Where(
		docstore.Eq(models.RefreshTokenUsername, username),
		docstore.Eq(models.RefreshTokenValue, refreshToken),
	))
	return common.StorageFailure(err)
}

func (s *AccountService) checkAdmin(ctx context.Context, accessToken string) (string, bool, error) {
	if accessToken == "" {
		return "", false, common.ErrUnauthenticated
	}
	username, err := s.tokens.DecodeAccess(accessToken)
	if err != nil {
		return "", false, err
	}
	acc, found, err := s.findAccount(ctx, username)
	if err != nil {
		return "", false, err
	}
	return username, found && acc.IsAdmin(), nil
}

// IsAdmin reports whether the access token belongs to an admin. Unknown
// accounts are not admins.
func (s *AccountService) IsAdmin(ctx context.Context, accessToken string) (bool, error) {
	_, ok, err := s.checkAdmin(ctx, accessToken)
	return ok, err
}

// RequireAdmin returns the account name behind an admin access token.
func (s *AccountService) RequireAdmin(ctx context.Context, accessToken string) (string, error) {
	username, ok, err := s.checkAdmin(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrForbidden
	}
	return username, nil
}

// Delete removes an account together with its refresh record.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	if err := auth.ValidateUsername(username); err != nil {
		return err
	}

	res, err := s.repomanager.Accounts().Delete(ctx, byUsername(username))
	if err != nil {
		return common.StorageFailure(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotExistUser
	}

	if _, err := s.repomanager.RefreshTokens().Delete(ctx, docstore.Where(docstore.Eq(models.RefreshTokenUsername, username))); err != nil {
		return common.StorageFailure(err)
	}

	s.logger.Info(ctx, "account deleted", "username", username)
	return nil
}

// List returns every account without credentials.
func (s *AccountService) List(ctx context.Context) ([]AccountSummary, error) {
	accounts, err := s.repomanager.Accounts().Find(ctx, docstore.All, docstore.Project(models.AccountUsername, models.AccountRole))
	if err != nil {
		return nil, common.StorageFailure(err)
	}
	out := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountSummary{Username: a.Username, Role: a.Role})
	}
	return out, nil
}

// EnsureAdmin creates the bootstrap admin unless an account with that name
// exists. An empty username disables bootstrapping.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	err := s.Signup(ctx, username, password, models.RoleAdmin)
	if errors.Is(err, common.ErrExistUser) {
		return nil
	}
	return err
}
