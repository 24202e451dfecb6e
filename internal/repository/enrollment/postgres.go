package enrollment

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

func (r *postgresRepo) InsertIfAbsent(ctx context.Context, studentID, courseID int64) (*domain.Enrollment, bool, error) {
	const insert = `
INSERT INTO enrollments (student_id, course_id)
VALUES ($1, $2)
ON CONFLICT (student_id, course_id) DO NOTHING
RETURNING id, student_id, course_id, enrolled_at
`
	var e domain.Enrollment
	err := r.pool.QueryRow(ctx, insert, studentID, courseID).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledAt)
	if err == nil {
		return &e, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: the enrollment already exists, fetch it.
	const get = `
SELECT id, student_id, course_id, enrolled_at
FROM enrollments
WHERE student_id = $1 AND course_id = $2
`
	if err := r.pool.QueryRow(ctx, get, studentID, courseID).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledAt); err != nil {
		return nil, false, err
	}
	return &e, false, nil
}

func (r *postgresRepo) ListByStudent(ctx context.Context, studentID int64) ([]domain.Enrollment, error) {
	const q = `
SELECT id, student_id, course_id, enrolled_at
FROM enrollments
WHERE student_id = $1
ORDER BY enrolled_at DESC
`
	rows, err := r.pool.Query(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Enrollment{}
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ExistingCourseIDs(ctx context.Context, studentID int64, courseIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	const q = `
SELECT course_id
FROM enrollments
WHERE student_id = $1 AND course_id = ANY($2)
`
	rows, err := r.pool.Query(ctx, q, studentID, courseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
