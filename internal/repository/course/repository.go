package course

import (
	"context"

	"course-marketplace/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Course, error)
	// ListByIDs batch-loads courses; missing ids are simply absent from
	// the result.
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Course, error)
	ListPublished(ctx context.Context) ([]domain.Course, error)
}
