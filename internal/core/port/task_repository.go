package port

import (
	"context"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
)

// TaskRepository persists task rows scoped by owner.
type TaskRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Create(ctx context.Context, task domain.Task) (*domain.Task, error)
	Update(ctx context.Context, userID, id string, update domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error
}
