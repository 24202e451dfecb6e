package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"course-marketplace/internal/config"
	"course-marketplace/internal/db"
	"course-marketplace/internal/events"
	"course-marketplace/internal/httpserver"
	"course-marketplace/internal/metrics"
	"course-marketplace/internal/paypal"
	auditrepo "course-marketplace/internal/repository/auditlog"
	courserepo "course-marketplace/internal/repository/course"
	enrollrepo "course-marketplace/internal/repository/enrollment"
	orderrepo "course-marketplace/internal/repository/order"
	userrepo "course-marketplace/internal/repository/user"
	authsvc "course-marketplace/internal/service/auth"
	cartsvc "course-marketplace/internal/service/cart"
	enrollsvc "course-marketplace/internal/service/enrollment"
	paymentsvc "course-marketplace/internal/service/payment"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DB)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	userRepo := userrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	enrollRepo := enrollrepo.NewPostgres(dbpool)
	auditRepo := auditrepo.NewPostgres(dbpool)

	courseRepo := courserepo.NewPostgres(dbpool)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		courseRepo = courserepo.NewCached(courseRepo, rdb, cfg.Redis.TTL, logger)
		logger.Printf("course cache enabled via redis at %s", cfg.Redis.Addr)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Printf("settlement events published to %s", cfg.Kafka.Topic)
	}

	authService := authsvc.New(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	cartService := cartsvc.New(orderRepo, courseRepo, auditRepo, logger)
	enrollService := enrollsvc.New(enrollRepo, auditRepo, logger)
	paymentService := paymentsvc.New(paymentsvc.Deps{
		Gateway:   paypal.NewClient(cfg.PayPal),
		Orders:    orderRepo,
		Users:     userRepo,
		Granter:   enrollService,
		Audit:     auditRepo,
		Publisher: publisher,
		Metrics:   metrics.NewPayment(prometheus.DefaultRegisterer),
		Logger:    logger,
	})

	gin.SetMode(gin.ReleaseMode)
	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:    authService,
		CartSvc:    cartService,
		PaymentSvc: paymentService,
		EnrollSvc:  enrollService,
		Courses:    courseRepo,
		AuditLogs:  auditRepo,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
