package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/shopspring/decimal"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/events"
	"course-marketplace/internal/metrics"
	"course-marketplace/internal/paypal"
	orderrepo "course-marketplace/internal/repository/order"
)

// ErrInvalidAmount rejects detached order creation without a positive total.
var ErrInvalidAmount = errors.New("totalPrice must be positive")

// Service coordinates checkout and settlement: it turns a cart into a
// gateway order, and a confirmed capture into durable enrollments. It is the
// only caller of the payment gateway.
type Service struct {
	gateway   gateway
	orders    settlementOrderRepo
	users     userLookup
	granter   granter
	audit     auditSink
	publisher events.Publisher
	metrics   *metrics.Payment
	logger    *log.Logger
}

type gateway interface {
	CreateOrder(ctx context.Context, in paypal.CreateOrderInput) (*paypal.RemoteOrder, error)
	CaptureOrder(ctx context.Context, gatewayOrderID string) (*paypal.CaptureResult, error)
}

type settlementOrderRepo interface {
	GetCart(ctx context.Context, userID int64) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error)
	Checkout(ctx context.Context, in orderrepo.CheckoutInput) error
	CreateDetached(ctx context.Context, in orderrepo.DetachedInput) (*domain.Order, error)
	Complete(ctx context.Context, orderID, userID int64) (bool, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type granter interface {
	Grant(ctx context.Context, studentID int64, courses []domain.Course) ([]domain.Enrollment, error)
}

type auditSink interface {
	Append(ctx context.Context, entry domain.LogEntry) error
}

type Deps struct {
	Gateway   gateway
	Orders    settlementOrderRepo
	Users     userLookup
	Granter   granter
	Audit     auditSink
	Publisher events.Publisher
	Metrics   *metrics.Payment
	Logger    *log.Logger
}

func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		gateway:   deps.Gateway,
		orders:    deps.Orders,
		users:     deps.Users,
		granter:   deps.Granter,
		audit:     deps.Audit,
		publisher: publisher,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// CreateOrderInput mirrors the create-order request body: a total and an
// optional free-text description for the gateway.
type CreateOrderInput struct {
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Description string          `json:"description"`
}

// CheckoutResult pairs the internal order with the gateway's representation.
type CheckoutResult struct {
	Order  *domain.Order       `json:"order"`
	Remote *paypal.RemoteOrder `json:"gateway"`
}

// CreateRemoteOrder creates the gateway-side order. An authenticated caller
// with a non-empty cart checks that cart out: the total is recomputed,
// frozen, and the cart moves to pending with the gateway id attached. Anyone
// else gets a detached pending order built from the request body; its owner
// attaches at capture. On gateway failure nothing internal changes.
func (s *Service) CreateRemoteOrder(ctx context.Context, userID *int64, in CreateOrderInput) (*CheckoutResult, error) {
	if userID != nil {
		cart, err := s.orders.GetCart(ctx, *userID)
		switch {
		case err == nil && len(cart.Courses) > 0:
			return s.checkoutCart(ctx, *userID, cart, in.Description)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	return s.createDetached(ctx, userID, in)
}

func (s *Service) checkoutCart(ctx context.Context, userID int64, cart *domain.Order, description string) (*CheckoutResult, error) {
	cart.RecomputeTotal()
	if description == "" {
		description = cart.Description
	}
	if err := cart.TransitionTo(domain.OrderStatusPending); err != nil {
		return nil, err
	}

	remote, err := s.gateway.CreateOrder(ctx, paypal.CreateOrderInput{
		Value:       cart.TotalPrice,
		Description: description,
		ReferenceID: "order-" + strconv.FormatInt(cart.ID, 10),
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.Checkout(ctx, orderrepo.CheckoutInput{
		OrderID:        cart.ID,
		TotalPrice:     cart.TotalPrice,
		Description:    description,
		GatewayOrderID: remote.ID,
	}); err != nil {
		return nil, err
	}

	updated, err := s.orders.GetByID(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	s.countRemoteOrder()
	s.auditLog(ctx, domain.UserActor(userID), "payment.create_order", "order", updated.ID,
		fmt.Sprintf("gateway order %s, total %s", remote.ID, updated.TotalPrice.StringFixed(2)))

	return &CheckoutResult{Order: updated, Remote: remote}, nil
}

func (s *Service) createDetached(ctx context.Context, userID *int64, in CreateOrderInput) (*CheckoutResult, error) {
	if !in.TotalPrice.IsPositive() {
		return nil, ErrInvalidAmount
	}

	remote, err := s.gateway.CreateOrder(ctx, paypal.CreateOrderInput{
		Value:       in.TotalPrice,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.orders.CreateDetached(ctx, orderrepo.DetachedInput{
		TotalPrice:     in.TotalPrice,
		Description:    in.Description,
		GatewayOrderID: remote.ID,
	})
	if err != nil {
		return nil, err
	}

	actor := domain.SystemActor()
	if userID != nil {
		actor = domain.UserActor(*userID)
	}
	s.countRemoteOrder()
	s.auditLog(ctx, actor, "payment.create_order", "order", created.ID,
		fmt.Sprintf("gateway order %s, total %s", remote.ID, created.TotalPrice.StringFixed(2)))

	return &CheckoutResult{Order: created, Remote: remote}, nil
}

// Settle turns a confirmed capture into granted enrollments, exactly once.
// An order that is already completed is returned as-is after re-running the
// idempotent granter; the gateway is not called a second time. Gateway
// failures propagate with the order untouched, so the caller may retry.
func (s *Service) Settle(ctx context.Context, userID int64, gatewayOrderID string) (*domain.Order, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	ord, err := s.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	if ord.OrderStatus == domain.OrderStatusCompleted {
		// Already settled. Re-running the granter heals a crash that
		// happened between the status persist and the grants.
		owner := userID
		if ord.UserID != nil {
			owner = *ord.UserID
		}
		if _, err := s.granter.Grant(ctx, owner, ord.Courses); err != nil {
			return nil, err
		}
		s.countCapture(metrics.ResultDuplicate)
		return ord, nil
	}

	if err := ord.TransitionTo(domain.OrderStatusCompleted); err != nil {
		return nil, err
	}

	res, err := s.gateway.CaptureOrder(ctx, gatewayOrderID)
	if err != nil {
		s.countCapture(metrics.ResultGatewayErr)
		return nil, err
	}

	// Persist the completed status before granting anything.
	if _, err := s.orders.Complete(ctx, ord.ID, user.ID); err != nil {
		return nil, fmt.Errorf("persist settlement for order %d: %w", ord.ID, err)
	}

	granted, err := s.granter.Grant(ctx, user.ID, ord.Courses)
	if err != nil {
		// The order is completed but some grants are missing; a retried
		// settle takes the duplicate path and finishes the job.
		return nil, err
	}

	s.countCapture(metrics.ResultSettled)
	s.countEnrollments(len(granted))
	s.auditLog(ctx, domain.UserActor(user.ID), "payment.capture", "order", ord.ID,
		fmt.Sprintf("gateway order %s status %s, %d enrollments granted", gatewayOrderID, res.Status, len(granted)))

	courseIDs := make([]int64, 0, len(ord.Courses))
	for _, c := range ord.Courses {
		courseIDs = append(courseIDs, c.ID)
	}
	if err := s.publisher.PublishOrderSettled(ctx, events.OrderSettledEvent{
		OrderID:        ord.ID,
		UserID:         user.ID,
		GatewayOrderID: gatewayOrderID,
		CourseIDs:      courseIDs,
		TotalPrice:     ord.TotalPrice.StringFixed(2),
	}); err != nil {
		s.logger.Printf("publish settlement event for order %d: %v", ord.ID, err)
	}

	return s.orders.GetByID(ctx, ord.ID)
}

func (s *Service) auditLog(ctx context.Context, actor domain.Actor, action, entity string, entityID int64, details string) {
	if s.audit == nil {
		return
	}
	entry := domain.LogEntry{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Details:  details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Printf("audit %s: %v", action, err)
	}
}

func (s *Service) countRemoteOrder() {
	if s.metrics != nil {
		s.metrics.RemoteOrdersCreated.Inc()
	}
}

func (s *Service) countCapture(result string) {
	if s.metrics != nil {
		s.metrics.Captures.WithLabelValues(result).Inc()
	}
}

func (s *Service) countEnrollments(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.EnrollmentsGranted.Add(float64(n))
	}
}
