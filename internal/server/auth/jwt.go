// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UsernameClaim is the claim carrying the account name.
const UsernameClaim = "username"

// Claims are the registered claims plus the account name.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService signs access tokens and refresh tokens with separate secrets.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL is the lifetime of access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateToken signs an HS256 token for username. Every token gets a
// unique ID, so two tokens issued within the same second still differ.
func GenerateToken(username string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Username: username,
	})
	return token.SignedString(secretKey)
}

func (s *TokenService) IssueAccess(username string) (string, error) {
	return GenerateToken(username, s.accessSecret, s.accessTTL)
}

func (s *TokenService) IssuePair(username string) (*TokenPair, error) {
	access, err := s.IssueAccess(username)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateToken(username, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// DecodeAccess returns the account name of a valid access token.
func (s *TokenService) DecodeAccess(token string) (string, error) {
	return DecodeClaim(token, UsernameClaim, s.accessSecret)
}

// DecodeRefresh returns the account name of a valid refresh token.
func (s *TokenService) DecodeRefresh(token string) (string, error) {
	return DecodeClaim(token, UsernameClaim, s.refreshSecret)
}

// DecodeClaim verifies the HS256 signature and expiry of token and returns
// the named string claim. Expired tokens yield common.ErrTokenExpired;
// everything else wrong with the token yields common.ErrInvalidToken.
func DecodeClaim(token, claim string, secret []byte) (string, error) {
	if token == "" {
		return "", common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", common.ErrTokenExpired
	}
	if err != nil {
		return "", common.ErrInvalidToken.Wrap(err)
	}

	v, ok := claims[claim].(string)
	if !ok || v == "" {
		return "", common.ErrInvalidToken.WithMessage("token has no " + claim + " claim")
	}
	return v, nil
}
