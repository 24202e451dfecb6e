package auditlog

import (
	"context"

	"course-marketplace/internal/domain"
)

// Repository is the append-only audit sink. Appends are best-effort from the
// caller's point of view: settlement never fails because a log line did.
type Repository interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	List(ctx context.Context, limit, offset int) ([]domain.LogEntry, error)
}
