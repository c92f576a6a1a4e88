package port

import (
	"context"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
)

// CounterRepository persists authoritative counter rows. Lookups are scoped by owner and
// return repository.ErrNotFound when no row matches.
type CounterRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Counter, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Counter, error)
	Create(ctx context.Context, counter domain.Counter) (*domain.Counter, error)
	Update(ctx context.Context, userID, id string, update domain.CounterUpdate) (*domain.Counter, error)
	Delete(ctx context.Context, userID, id string) error
}
