package auth

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/cache"
)

// ErrRefreshTokenUnknown is returned for refresh tokens that were never
// issued, have expired, or were revoked at logout.
var ErrRefreshTokenUnknown = errors.New("refresh token unknown or revoked")

// TokenStoreInterface tracks live refresh tokens and revoked access tokens.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID uint, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps token state in Redis. Without Redis every refresh token
// reads as unknown and nothing is ever revoked.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a token store over the shared cache client.
func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{cache: c}
}

type refreshOwner struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

func refreshKey(tokenID string) string { return "auth:refresh:" + tokenID }
func revokedKey(tokenID string) string { return "auth:revoked:" + tokenID }

// StoreRefreshToken records the owner of a freshly issued refresh token.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	return s.cache.SetJSON(ctx, refreshKey(tokenID), refreshOwner{UserID: userID, Email: email}, ttl)
}

// GetRefreshToken returns the owner recorded for tokenID.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	var owner refreshOwner
	if !s.cache.GetJSON(ctx, refreshKey(tokenID), &owner) {
		return 0, "", ErrRefreshTokenUnknown
	}
	return owner.UserID, owner.Email, nil
}

// DeleteRefreshToken revokes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshKey(tokenID))
}

// BlacklistAccessToken revokes an access token for the rest of its lifetime.
// Tokens that already expired are skipped.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedKey(tokenID), []byte{'1'}, ttl)
}

// IsAccessTokenBlacklisted reports whether tokenID was revoked. Lookup
// errors read as not revoked so a Redis outage does not lock everyone out.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedKey(tokenID))
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}
