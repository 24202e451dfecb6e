package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors the external gateway's view of an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// OrderStatus is the internal order lifecycle. "cart" is the mutable
// pre-checkout state.
type OrderStatus string

const (
	OrderStatusCart      OrderStatus = "cart"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusCart:      0,
	OrderStatusPending:   1,
	OrderStatusCompleted: 2,
}

// Order is a cart or a completed purchase. A user has at most one order in
// the cart state at any time.
type Order struct {
	ID             int64           `json:"id"`
	UserID         *int64          `json:"userId,omitempty"`
	Courses        []Course        `json:"courses"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	Description    string          `json:"description,omitempty"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	OrderStatus    OrderStatus     `json:"orderStatus"`
	GatewayOrderID string          `json:"gatewayOrderId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// RecomputeTotal sets TotalPrice to the sum of the current line-item course
// prices. Must be called whenever the line items change.
func (o *Order) RecomputeTotal() {
	total := decimal.Zero
	for _, c := range o.Courses {
		total = total.Add(c.Price)
	}
	o.TotalPrice = total
}

// TransitionTo moves the order status one step forward along
// cart -> pending -> completed. Backward moves, repeats and skipped states
// are integrity errors.
func (o *Order) TransitionTo(next OrderStatus) error {
	from, ok := orderStatusRank[o.OrderStatus]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, o.OrderStatus)
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if to != from+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.OrderStatus, next)
	}
	o.OrderStatus = next
	return nil
}

// HasCourse reports whether the course is already a line item.
func (o *Order) HasCourse(courseID int64) bool {
	for _, c := range o.Courses {
		if c.ID == courseID {
			return true
		}
	}
	return false
}

// EmptyCart is the well-defined cart returned before the user has added
// anything. It is not persisted; a row appears on the first add.
func EmptyCart(userID int64) *Order {
	uid := userID
	return &Order{
		UserID:        &uid,
		Courses:       []Course{},
		TotalPrice:    decimal.Zero,
		PaymentStatus: PaymentPending,
		OrderStatus:   OrderStatusCart,
	}
}
