package cart

import (
	"context"
	"errors"
)

// ErrNoSavedCart is returned by Storage.Load when nothing is stored under the
// given key.
var ErrNoSavedCart = errors.New("no saved cart")

// Storage persists the full item sequence of one cart under a key. The store
// writes through after every mutation and loads once at hydration; panel state
// is never stored.
type Storage interface {
	Load(ctx context.Context, key string) ([]LineItem, error)
	Save(ctx context.Context, key string, items []LineItem) error
	Delete(ctx context.Context, key string) error
}
