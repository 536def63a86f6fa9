package cart

import (
	"context"
	"errors"

	"github.com/avelis/shopfront/internal/domain"
)

// Store persists the serialized line-item list for a session. Consumers
// define this interface, not the storage implementation.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]domain.LineItem, error)
	Save(ctx context.Context, sessionID string, items []domain.LineItem) error
	Clear(ctx context.Context, sessionID string) error
}

var ErrNoCart = errors.New("no cart stored for session")
