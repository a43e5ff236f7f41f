// Package session holds the credential token issued by the finance API.
//
// A Session is the explicit replacement for browser-local storage: the API
// client reads it on every call and clears it on a 401, the auth guard checks
// it before rendering protected views, and login stores into it.
package session

import (
	"context"
	"errors"
	"sync"
)

// TokenKey is the storage key of the credential token.
const TokenKey = "authToken"

var ErrNoSession = errors.New("no session")

type Session interface {
	// Get returns the stored token and whether one is present.
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Get(context.Context) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
