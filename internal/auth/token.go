// Package auth wraps the external token exchange so that concurrent
// callers share a single in-flight request instead of issuing parallel
// exchanges.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Error wraps a failed token exchange.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("token exchange: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Token is an access token with its expiry.
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// valid reports whether the token is usable with a small safety margin.
func (t Token) valid() bool {
	return t.AccessToken != "" && time.Until(t.Expiry) > 30*time.Second
}

// ExchangeFunc performs the actual token exchange against the identity
// provider. Supplied by the excluded OAuth layer.
type ExchangeFunc func(ctx context.Context) (Token, error)

// TokenSource caches a token and deduplicates concurrent exchanges.
type TokenSource struct {
	exchange ExchangeFunc
	group    singleflight.Group

	mu     sync.Mutex
	cached Token
}

func NewTokenSource(exchange ExchangeFunc) *TokenSource {
	return &TokenSource{exchange: exchange}
}

// Token returns the cached token if still valid, otherwise runs a single
// shared exchange.
func (s *TokenSource) Token(ctx context.Context) (Token, error) {
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()
	if cached.valid() {
		return cached, nil
	}

	v, err, _ := s.group.Do("exchange", func() (any, error) {
		token, err := s.exchange(ctx)
		if err != nil {
			return Token{}, err
		}
		s.mu.Lock()
		s.cached = token
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return Token{}, &Error{Cause: err}
	}
	return v.(Token), nil
}

// Invalidate drops the cached token, forcing the next Token call to
// exchange again. Called on sign-out.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.cached = Token{}
	s.mu.Unlock()
}
