package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"course-marketplace/internal/domain"
	auditrepo "course-marketplace/internal/repository/auditlog"
	courserepo "course-marketplace/internal/repository/course"
	orderrepo "course-marketplace/internal/repository/order"
)

// Service is the cart store: it maintains the single open order per user
// that represents "items not yet purchased".
type Service struct {
	orders  cartOrderRepo
	courses catalogRepo
	audit   auditSink
	logger  *log.Logger
}

type cartOrderRepo interface {
	GetCart(ctx context.Context, userID int64) (*domain.Order, error)
	AddCourseToCart(ctx context.Context, userID int64, courseID int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
}

type catalogRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Course, error)
}

type auditSink interface {
	Append(ctx context.Context, entry domain.LogEntry) error
}

func New(orders orderrepo.Repository, courses courserepo.Repository, audit auditrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, courses: courses, audit: audit, logger: logger}
}

// GetCart returns the user's open cart, or the well-defined empty cart when
// nothing has been added yet. No row is created here.
func (s *Service) GetCart(ctx context.Context, userID int64) (*domain.Order, error) {
	cart, err := s.orders.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.EmptyCart(userID), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddCourse looks up the course and adds it to the user's cart, creating the
// cart on first use. Adding a course that is already a line item changes
// nothing; the total always ends up as the sum of current line-item prices.
func (s *Service) AddCourse(ctx context.Context, userID int64, courseID int64) (*domain.Order, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("course %d: %w", courseID, domain.ErrNotFound)
		}
		return nil, err
	}

	cart, err := s.orders.AddCourseToCart(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		entry := domain.LogEntry{
			Actor:    domain.UserActor(userID),
			Action:   "order.add_to_cart",
			Entity:   "order",
			EntityID: strconv.FormatInt(cart.ID, 10),
			Details:  fmt.Sprintf("course %d (%s)", course.ID, course.Title),
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			s.logger.Printf("audit add_to_cart: %v", err)
		}
	}

	return cart, nil
}

// ListOrders returns every order the user owns, cart included, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
