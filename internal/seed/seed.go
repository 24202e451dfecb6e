package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"course-marketplace/internal/domain"
)

type courseSeed struct {
	Title       string
	Description string
	Price       string
}

// Apply inserts basic seed data for manual testing. It is idempotent.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	instructorID, err := ensureUser(ctx, pool, "instructor@example.com", "Ira", "Teacher", domain.RoleInstructor)
	if err != nil {
		return fmt.Errorf("ensure instructor: %w", err)
	}
	if _, err := ensureUser(ctx, pool, "student@example.com", "Sam", "Learner", domain.RoleStudent); err != nil {
		return fmt.Errorf("ensure student: %w", err)
	}
	if _, err := ensureUser(ctx, pool, "admin@example.com", "Ada", "Ops", domain.RoleAdmin); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	courses := []courseSeed{
		{
			Title:       "Intro to Go",
			Description: "Syntax, tooling and the standard library",
			Price:       "149.99",
		},
		{
			Title:       "Databases with PostgreSQL",
			Description: "Schema design, transactions, indexing",
			Price:       "199.00",
		},
		{
			Title:       "Distributed Systems Basics",
			Description: "Consistency, idempotency, failure handling",
			Price:       "249.50",
		},
	}

	for _, c := range courses {
		if err := ensureCourse(ctx, pool, instructorID, c); err != nil {
			return fmt.Errorf("ensure course %q: %w", c.Title, err)
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, first, last string, role domain.Role) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	const q = `
INSERT INTO users (email, password_hash, first_name, last_name, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, email, string(hash), first, last, role).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureCourse(ctx context.Context, pool *pgxpool.Pool, instructorID int64, c courseSeed) error {
	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM courses WHERE title = $1`, c.Title).Scan(&id)
	if err == nil {
		return nil
	}

	_, err = pool.Exec(ctx, `
INSERT INTO courses (title, description, price, instructor_id, published)
VALUES ($1, $2, $3, $4, true)
`, c.Title, c.Description, c.Price, instructorID)
	return err
}
