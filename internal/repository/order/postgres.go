package order

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

const orderColumns = `id, user_id, total_price, description, payment_status, order_status, COALESCE(gateway_order_id, ''), created_at, updated_at`

func (r *postgresRepo) GetCart(ctx context.Context, userID int64) (*domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1 AND order_status = 'cart'
`
	return r.fetchOrder(ctx, q, userID)
}

func (r *postgresRepo) AddCourseToCart(ctx context.Context, userID int64, courseID int64) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the open cart row so concurrent adds for the same user
	// serialize instead of racing on the total.
	var cartID int64
	err = tx.QueryRow(ctx, `
SELECT id
FROM orders
WHERE user_id = $1 AND order_status = 'cart'
FOR UPDATE
`, userID).Scan(&cartID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if err := tx.QueryRow(ctx, `
INSERT INTO orders (user_id, payment_status, order_status)
VALUES ($1, 'pending', 'cart')
RETURNING id
`, userID).Scan(&cartID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO order_courses (order_id, course_id)
VALUES ($1, $2)
ON CONFLICT (order_id, course_id) DO NOTHING
`, cartID, courseID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
UPDATE orders
SET total_price = COALESCE((
	SELECT SUM(c.price)
	FROM order_courses oc
	JOIN courses c ON c.id = oc.course_id
	WHERE oc.order_id = $1
), 0),
    updated_at = now()
WHERE id = $1
`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, cartID)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	lines, err := r.fetchLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Courses = lines[orders[i].ID]
		if orders[i].Courses == nil {
			orders[i].Courses = []domain.Course{}
		}
	}
	return orders, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`
	return r.fetchOrder(ctx, q, id)
}

func (r *postgresRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE gateway_order_id = $1
`
	return r.fetchOrder(ctx, q, gatewayOrderID)
}

func (r *postgresRepo) Checkout(ctx context.Context, in CheckoutInput) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET order_status = 'pending',
    total_price = $2,
    description = $3,
    gateway_order_id = $4,
    updated_at = now()
WHERE id = $1 AND order_status = 'cart'
`, in.OrderID, in.TotalPrice, in.Description, in.GatewayOrderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *postgresRepo) CreateDetached(ctx context.Context, in DetachedInput) (*domain.Order, error) {
	q := `
INSERT INTO orders (total_price, description, payment_status, order_status, gateway_order_id)
VALUES ($1, $2, 'pending', 'pending', $3)
RETURNING ` + orderColumns + `
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, in.TotalPrice, in.Description, in.GatewayOrderID))
	if err != nil {
		return nil, err
	}
	o.Courses = []domain.Course{}
	return o, nil
}

func (r *postgresRepo) Complete(ctx context.Context, orderID, userID int64) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET payment_status = 'completed',
    order_status = 'completed',
    user_id = $2,
    updated_at = now()
WHERE id = $1 AND order_status <> 'completed'
`, orderID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.fetchLines(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Courses = lines[o.ID]
	if o.Courses == nil {
		o.Courses = []domain.Course{}
	}
	return o, nil
}

// fetchLines loads line items for a batch of orders in one query.
func (r *postgresRepo) fetchLines(ctx context.Context, orderIDs []int64) (map[int64][]domain.Course, error) {
	rows, err := r.pool.Query(ctx, `
SELECT oc.order_id, c.id, c.title, c.description, c.price, c.instructor_id, c.published, c.created_at
FROM order_courses oc
JOIN courses c ON c.id = oc.course_id
WHERE oc.order_id = ANY($1)
ORDER BY c.id ASC
`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.Course)
	for rows.Next() {
		var orderID int64
		var c domain.Course
		if err := rows.Scan(
			&orderID,
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
		out[orderID] = append(out[orderID], c)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var userID *int64
	if err := row.Scan(
		&o.ID,
		&userID,
		&o.TotalPrice,
		&o.Description,
		&o.PaymentStatus,
		&o.OrderStatus,
		&o.GatewayOrderID,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.UserID = userID
	return &o, nil
}
