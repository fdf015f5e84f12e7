// Package session holds process-wide authentication state with persistence
// to a local key-value store and a background refresh against the backend.
package session

import (
	"context"
	"errors"
)

// Store keys. Absence of the token key on load means "logged out".
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// ErrKeyNotFound is returned by Store.Get for an absent key.
var ErrKeyNotFound = errors.New("session key not found")

// Store is the persistent key-value store backing the session, so a held
// token survives restarts of the agent.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}
