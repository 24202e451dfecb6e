package auditlog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-marketplace/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Append(ctx context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	var actorID *int64
	if entry.Actor.Kind == domain.ActorUser {
		id := entry.Actor.UserID
		actorID = &id
	}
	const q = `
INSERT INTO log_entries (id, actor_kind, actor_id, action, entity, entity_id, details)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.pool.Exec(ctx, q,
		entry.ID,
		entry.Actor.Kind,
		actorID,
		entry.Action,
		entry.Entity,
		entry.EntityID,
		entry.Details,
	)
	return err
}

// clampPage bounds caller-supplied paging values so they are always valid
// LIMIT/OFFSET arguments.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]domain.LogEntry, error) {
	limit, offset = clampPage(limit, offset)
	const q = `
SELECT id, actor_kind, actor_id, action, entity, entity_id, details, created_at
FROM log_entries
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LogEntry{}
	for rows.Next() {
		var e domain.LogEntry
		var actorID *int64
		if err := rows.Scan(&e.ID, &e.Actor.Kind, &actorID, &e.Action, &e.Entity, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			e.Actor.UserID = *actorID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
