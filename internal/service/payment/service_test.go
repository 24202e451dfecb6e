package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/events"
	"course-marketplace/internal/paypal"
	orderrepo "course-marketplace/internal/repository/order"
)

type stubGateway struct {
	createCalls  int
	createErr    error
	captureCalls int
	captureErr   error
}

func (g *stubGateway) CreateOrder(_ context.Context, _ paypal.CreateOrderInput) (*paypal.RemoteOrder, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &paypal.RemoteOrder{ID: "PAY-1", Status: "CREATED", ApproveURL: "https://gateway/approve"}, nil
}

func (g *stubGateway) CaptureOrder(_ context.Context, _ string) (*paypal.CaptureResult, error) {
	g.captureCalls++
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	return &paypal.CaptureResult{GatewayOrderID: "PAY-1", Status: "COMPLETED"}, nil
}

// memOrders keeps orders in memory and mimics the guarded repository updates.
type memOrders struct {
	orders        map[int64]*domain.Order
	checkoutCalls []orderrepo.CheckoutInput
	completeCalls int
}

func newMemOrders(orders ...*domain.Order) *memOrders {
	m := &memOrders{orders: make(map[int64]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) GetCart(_ context.Context, userID int64) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.OrderStatus == domain.OrderStatusCart && o.UserID != nil && *o.UserID == userID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *memOrders) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.GatewayOrderID == gatewayOrderID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) Checkout(_ context.Context, in orderrepo.CheckoutInput) error {
	m.checkoutCalls = append(m.checkoutCalls, in)
	o, ok := m.orders[in.OrderID]
	if !ok || o.OrderStatus != domain.OrderStatusCart {
		return domain.ErrInvalidTransition
	}
	o.OrderStatus = domain.OrderStatusPending
	o.TotalPrice = in.TotalPrice
	o.Description = in.Description
	o.GatewayOrderID = in.GatewayOrderID
	return nil
}

func (m *memOrders) CreateDetached(_ context.Context, in orderrepo.DetachedInput) (*domain.Order, error) {
	o := &domain.Order{
		ID:             int64(len(m.orders) + 1),
		TotalPrice:     in.TotalPrice,
		Description:    in.Description,
		GatewayOrderID: in.GatewayOrderID,
		PaymentStatus:  domain.PaymentPending,
		OrderStatus:    domain.OrderStatusPending,
	}
	m.orders[o.ID] = o
	clone := *o
	return &clone, nil
}

func (m *memOrders) Complete(_ context.Context, orderID, userID int64) (bool, error) {
	m.completeCalls++
	o, ok := m.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.OrderStatus == domain.OrderStatusCompleted {
		return false, nil
	}
	o.OrderStatus = domain.OrderStatusCompleted
	o.PaymentStatus = domain.PaymentCompleted
	uid := userID
	o.UserID = &uid
	return true, nil
}

type stubUsers struct {
	users map[int64]*domain.User
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

type stubGranter struct {
	calls [][]int64
	err   error
}

func (g *stubGranter) Grant(_ context.Context, _ int64, courses []domain.Course) ([]domain.Enrollment, error) {
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	g.calls = append(g.calls, ids)
	if g.err != nil {
		return nil, g.err
	}
	granted := make([]domain.Enrollment, len(courses))
	for i, c := range courses {
		granted[i] = domain.Enrollment{ID: int64(i + 1), CourseID: c.ID}
	}
	return granted, nil
}

type capturePublisher struct {
	events []events.OrderSettledEvent
}

func (p *capturePublisher) PublishOrderSettled(_ context.Context, ev events.OrderSettledEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func twoCourses() []domain.Course {
	return []domain.Course{
		{ID: 10, Title: "Go", Price: decimal.RequireFromString("99.99")},
		{ID: 11, Title: "SQL", Price: decimal.RequireFromString("49.99")},
	}
}

func pendingOrder(gatewayID string) *domain.Order {
	return &domain.Order{
		ID:             1,
		Courses:        twoCourses(),
		TotalPrice:     decimal.RequireFromString("149.98"),
		PaymentStatus:  domain.PaymentPending,
		OrderStatus:    domain.OrderStatusPending,
		GatewayOrderID: gatewayID,
	}
}

func TestSettle_CapturesAndGrantsOnce(t *testing.T) {
	gateway := &stubGateway{}
	orders := newMemOrders(pendingOrder("PAY-1"))
	granter := &stubGranter{}
	publisher := &capturePublisher{}
	svc := New(Deps{
		Gateway:   gateway,
		Orders:    orders,
		Users:     &stubUsers{users: map[int64]*domain.User{7: {ID: 7, Role: domain.RoleStudent}}},
		Granter:   granter,
		Publisher: publisher,
	})

	settled, err := svc.Settle(context.Background(), 7, "PAY-1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.OrderStatus != domain.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", settled.OrderStatus)
	}
	if settled.UserID == nil || *settled.UserID != 7 {
		t.Fatalf("expected owner 7, got %v", settled.UserID)
	}
	if gateway.captureCalls != 1 {
		t.Fatalf("expected 1 capture, got %d", gateway.captureCalls)
	}
	if orders.completeCalls != 1 {
		t.Fatalf("expected 1 complete, got %d", orders.completeCalls)
	}
	if len(granter.calls) != 1 || len(granter.calls[0]) != 2 {
		t.Fatalf("expected one grant over both courses, got %v", granter.calls)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected settlement event, got %d", len(publisher.events))
	}
	if publisher.events[0].TotalPrice != "149.98" {
		t.Fatalf("expected total 149.98 in event, got %s", publisher.events[0].TotalPrice)
	}
}

func TestSettle_SecondCallSkipsGateway(t *testing.T) {
	gateway := &stubGateway{}
	orders := newMemOrders(pendingOrder("PAY-1"))
	granter := &stubGranter{}
	svc := New(Deps{
		Gateway: gateway,
		Orders:  orders,
		Users:   &stubUsers{users: map[int64]*domain.User{7: {ID: 7}}},
		Granter: granter,
	})

	ctx := context.Background()
	if _, err := svc.Settle(ctx, 7, "PAY-1"); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	settled, err := svc.Settle(ctx, 7, "PAY-1")
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if settled.OrderStatus != domain.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", settled.OrderStatus)
	}
	if gateway.captureCalls != 1 {
		t.Fatalf("duplicate settle must not re-capture, got %d calls", gateway.captureCalls)
	}
	if orders.completeCalls != 1 {
		t.Fatalf("duplicate settle must not re-complete, got %d calls", orders.completeCalls)
	}
	// the duplicate path still re-runs the idempotent granter
	if len(granter.calls) != 2 {
		t.Fatalf("expected granter re-run on duplicate, got %d calls", len(granter.calls))
	}
}

func TestSettle_GatewayFailureLeavesOrderUntouched(t *testing.T) {
	gateway := &stubGateway{captureErr: &domain.GatewayError{StatusCode: 422, Message: "INSTRUMENT_DECLINED"}}
	orders := newMemOrders(pendingOrder("PAY-1"))
	granter := &stubGranter{}
	svc := New(Deps{
		Gateway: gateway,
		Orders:  orders,
		Users:   &stubUsers{users: map[int64]*domain.User{7: {ID: 7}}},
		Granter: granter,
	})

	_, err := svc.Settle(context.Background(), 7, "PAY-1")
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	stored, _ := orders.GetByID(context.Background(), 1)
	if stored.OrderStatus != domain.OrderStatusPending {
		t.Fatalf("order mutated on gateway failure: %s", stored.OrderStatus)
	}
	if len(granter.calls) != 0 {
		t.Fatalf("no enrollments may be granted on gateway failure, got %v", granter.calls)
	}
	if orders.completeCalls != 0 {
		t.Fatalf("complete must not run on gateway failure, got %d", orders.completeCalls)
	}
}

func TestSettle_UnknownUserUnauthorized(t *testing.T) {
	svc := New(Deps{
		Gateway: &stubGateway{},
		Orders:  newMemOrders(pendingOrder("PAY-1")),
		Users:   &stubUsers{users: map[int64]*domain.User{}},
		Granter: &stubGranter{},
	})

	if _, err := svc.Settle(context.Background(), 99, "PAY-1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSettle_UnknownGatewayOrder(t *testing.T) {
	svc := New(Deps{
		Gateway: &stubGateway{},
		Orders:  newMemOrders(),
		Users:   &stubUsers{users: map[int64]*domain.User{7: {ID: 7}}},
		Granter: &stubGranter{},
	})

	if _, err := svc.Settle(context.Background(), 7, "PAY-missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRemoteOrder_ChecksOutCart(t *testing.T) {
	uid := int64(7)
	cart := &domain.Order{
		ID:          1,
		UserID:      &uid,
		Courses:     twoCourses(),
		OrderStatus: domain.OrderStatusCart,
	}
	gateway := &stubGateway{}
	orders := newMemOrders(cart)
	svc := New(Deps{
		Gateway: gateway,
		Orders:  orders,
		Users:   &stubUsers{users: map[int64]*domain.User{7: {ID: 7}}},
		Granter: &stubGranter{},
	})

	result, err := svc.CreateRemoteOrder(context.Background(), &uid, CreateOrderInput{Description: "two courses"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.Remote.ID != "PAY-1" {
		t.Fatalf("expected gateway id PAY-1, got %s", result.Remote.ID)
	}
	if result.Order.OrderStatus != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", result.Order.OrderStatus)
	}
	if result.Order.GatewayOrderID != "PAY-1" {
		t.Fatalf("gateway id not persisted on order: %q", result.Order.GatewayOrderID)
	}
	if len(orders.checkoutCalls) != 1 {
		t.Fatalf("expected one checkout, got %d", len(orders.checkoutCalls))
	}
	// the total is recomputed from line items and frozen at checkout
	if !orders.checkoutCalls[0].TotalPrice.Equal(decimal.RequireFromString("149.98")) {
		t.Fatalf("expected frozen total 149.98, got %s", orders.checkoutCalls[0].TotalPrice)
	}
}

func TestCreateRemoteOrder_GatewayFailureDoesNotPersist(t *testing.T) {
	uid := int64(7)
	cart := &domain.Order{
		ID:          1,
		UserID:      &uid,
		Courses:     twoCourses(),
		OrderStatus: domain.OrderStatusCart,
	}
	gateway := &stubGateway{createErr: &domain.GatewayError{StatusCode: 500, Message: "unavailable"}}
	orders := newMemOrders(cart)
	svc := New(Deps{
		Gateway: gateway,
		Orders:  orders,
		Users:   &stubUsers{users: map[int64]*domain.User{7: {ID: 7}}},
		Granter: &stubGranter{},
	})

	_, err := svc.CreateRemoteOrder(context.Background(), &uid, CreateOrderInput{})
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(orders.checkoutCalls) != 0 {
		t.Fatalf("checkout must not run on gateway failure")
	}
	stored, _ := orders.GetByID(context.Background(), 1)
	if stored.OrderStatus != domain.OrderStatusCart {
		t.Fatalf("cart mutated on gateway failure: %s", stored.OrderStatus)
	}
}

func TestCreateRemoteOrder_DetachedForAnonymous(t *testing.T) {
	gateway := &stubGateway{}
	orders := newMemOrders()
	svc := New(Deps{
		Gateway: gateway,
		Orders:  orders,
		Users:   &stubUsers{},
		Granter: &stubGranter{},
	})

	result, err := svc.CreateRemoteOrder(context.Background(), nil, CreateOrderInput{
		TotalPrice:  decimal.RequireFromString("25.00"),
		Description: "gift order",
	})
	if err != nil {
		t.Fatalf("create detached: %v", err)
	}
	if result.Order.UserID != nil {
		t.Fatalf("detached order must have no owner, got %v", result.Order.UserID)
	}
	if result.Order.GatewayOrderID != "PAY-1" {
		t.Fatalf("expected gateway id on detached order, got %q", result.Order.GatewayOrderID)
	}
}

func TestCreateRemoteOrder_DetachedRejectsNonPositiveTotal(t *testing.T) {
	gateway := &stubGateway{}
	svc := New(Deps{
		Gateway: gateway,
		Orders:  newMemOrders(),
		Users:   &stubUsers{},
		Granter: &stubGranter{},
	})

	_, err := svc.CreateRemoteOrder(context.Background(), nil, CreateOrderInput{TotalPrice: decimal.Zero})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if gateway.createCalls != 0 {
		t.Fatalf("gateway must not be called for invalid amount")
	}
}

func TestCreateRemoteOrder_EmptyCartFallsBackToDetached(t *testing.T) {
	uid := int64(7)
	gateway := &stubGateway{}
	orders := newMemOrders()
	svc := New(Deps{
		Gateway: gateway,
		Orders:  orders,
		Users:   &stubUsers{users: map[int64]*domain.User{7: {ID: 7}}},
		Granter: &stubGranter{},
	})

	result, err := svc.CreateRemoteOrder(context.Background(), &uid, CreateOrderInput{
		TotalPrice: decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(orders.checkoutCalls) != 0 {
		t.Fatalf("no cart to check out, got %d checkout calls", len(orders.checkoutCalls))
	}
	if result.Order.OrderStatus != domain.OrderStatusPending {
		t.Fatalf("expected pending detached order, got %s", result.Order.OrderStatus)
	}
}
