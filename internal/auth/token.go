// Package auth supplies bearer tokens to the HTTP transport.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// expiryBuffer treats a token as expired slightly before its deadline.
const expiryBuffer = 30 * time.Second

var (
	ErrNoToken                  = errors.New("no access token available")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// TokenManager hands out access tokens for outgoing requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
}

// Token is an access token with an optional expiry.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be sent.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token behind a lock.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear drops the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}

// StaticTokenManager serves a token supplied up front, e.g. from a CLI flag.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager wraps a fixed token that never expires.
func NewStaticTokenManager(token string) *StaticTokenManager {
	store := NewTokenStore()
	if token != "" {
		store.Set(&Token{AccessToken: token, TokenType: "bearer"})
	}

	return &StaticTokenManager{store: store}
}

// GetToken implements TokenManager.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", ErrNoToken
	}

	return token.AccessToken, nil
}

// RefreshToken implements TokenManager. Static tokens have nothing to refresh with.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}
