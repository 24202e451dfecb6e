package course

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-marketplace/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const courseColumns = `id, title, description, price, instructor_id, published, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	q := `
SELECT ` + courseColumns + `
FROM courses
WHERE id = $1
`
	c, err := scanCourse(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.Course, error) {
	if len(ids) == 0 {
		return []domain.Course{}, nil
	}
	q := `
SELECT ` + courseColumns + `
FROM courses
WHERE id = ANY($1)
ORDER BY id ASC
`
	return r.list(ctx, q, ids)
}

func (r *postgresRepo) ListPublished(ctx context.Context) ([]domain.Course, error) {
	q := `
SELECT ` + courseColumns + `
FROM courses
WHERE published
ORDER BY id ASC
`
	return r.list(ctx, q)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Course, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Price,
		&c.InstructorID,
		&c.Published,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
