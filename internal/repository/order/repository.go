package order

import (
	"context"

	"github.com/shopspring/decimal"

	"course-marketplace/internal/domain"
)

// CheckoutInput freezes the cart into a pending order linked to the gateway.
type CheckoutInput struct {
	OrderID        int64
	TotalPrice     decimal.Decimal
	Description    string
	GatewayOrderID string
}

// DetachedInput creates a pending order with no pre-existing cart. The owner
// is attached later, at capture time.
type DetachedInput struct {
	TotalPrice     decimal.Decimal
	Description    string
	GatewayOrderID string
}

type Repository interface {
	// GetCart returns the user's open cart, or domain.ErrNotFound if the
	// user has never added anything.
	GetCart(ctx context.Context, userID int64) (*domain.Order, error)
	// AddCourseToCart adds a line item, creating the cart row lazily. The
	// add is idempotent and the total is recomputed in the same
	// transaction, with the cart row locked against concurrent adds.
	AddCourseToCart(ctx context.Context, userID int64, courseID int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error)
	// Checkout moves a cart to pending and records the gateway linkage.
	// The guarded update refuses anything but an open cart.
	Checkout(ctx context.Context, in CheckoutInput) error
	CreateDetached(ctx context.Context, in DetachedInput) (*domain.Order, error)
	// Complete marks payment and order completed and attaches the owner.
	// Returns false when the order was already completed.
	Complete(ctx context.Context, orderID, userID int64) (bool, error)
}
