package httpserver

import (
	"context"
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/metrics"
	authsvc "course-marketplace/internal/service/auth"
	paymentsvc "course-marketplace/internal/service/payment"
)

// AuthService issues and verifies access tokens.
type AuthService interface {
	Register(ctx context.Context, in authsvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	ParseToken(token string) (*authsvc.Claims, error)
}

// CartService is the cart store surface.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*domain.Order, error)
	AddCourse(ctx context.Context, userID int64, courseID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}

// PaymentService is the checkout/settlement surface.
type PaymentService interface {
	CreateRemoteOrder(ctx context.Context, userID *int64, in paymentsvc.CreateOrderInput) (*paymentsvc.CheckoutResult, error)
	Settle(ctx context.Context, userID int64, gatewayOrderID string) (*domain.Order, error)
}

type EnrollmentService interface {
	ListByStudent(ctx context.Context, studentID int64) ([]domain.Enrollment, error)
}

// CourseCatalog is the passive catalog read model.
type CourseCatalog interface {
	GetByID(ctx context.Context, id int64) (*domain.Course, error)
	ListPublished(ctx context.Context) ([]domain.Course, error)
}

type AuditLogReader interface {
	List(ctx context.Context, limit, offset int) ([]domain.LogEntry, error)
}

// Deps carries everything the router needs.
type Deps struct {
	AuthSvc    AuthService
	CartSvc    CartService
	PaymentSvc PaymentService
	EnrollSvc  EnrollmentService
	Courses    CourseCatalog
	AuditLogs  AuditLogReader
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.AuthSvc == nil || deps.CartSvc == nil || deps.PaymentSvc == nil {
		return nil, errors.New("missing dependencies")
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/auth/register", registerHandler(deps.AuthSvc))
	router.POST("/auth/login", loginHandler(deps.AuthSvc))

	if deps.Courses != nil {
		router.GET("/courses", listCoursesHandler(deps.Courses))
		router.GET("/courses/:courseId", getCourseHandler(deps.Courses))
	}

	orders := router.Group("/orders", authRequired(deps.AuthSvc), requireRole(domain.RoleStudent))
	orders.GET("", listOrdersHandler(deps.CartSvc))
	orders.GET("/cart", getCartHandler(deps.CartSvc))
	orders.POST("/add-to-cart/:courseId", addToCartHandler(deps.CartSvc))

	payments := router.Group("/payments/paypal")
	payments.POST("/create-order", authOptional(deps.AuthSvc), createOrderHandler(deps.PaymentSvc))
	payments.POST("/capture-order", authRequired(deps.AuthSvc), captureOrderHandler(deps.PaymentSvc))

	if deps.EnrollSvc != nil {
		router.GET("/enrollments", authRequired(deps.AuthSvc), requireRole(domain.RoleStudent), listEnrollmentsHandler(deps.EnrollSvc))
	}
	if deps.AuditLogs != nil {
		router.GET("/logs", authRequired(deps.AuthSvc), requireRole(domain.RoleAdmin), listLogsHandler(deps.AuditLogs))
	}

	return router, nil
}
