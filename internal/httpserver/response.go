package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-marketplace/internal/domain"
	authsvc "course-marketplace/internal/service/auth"
	paymentsvc "course-marketplace/internal/service/payment"
)

// respondError maps domain errors onto the HTTP surface. Gateway errors are
// surfaced with the gateway's own message so the client can show the payment
// failure; transition violations are integrity errors and stay 500.
func respondError(c *gin.Context, err error) {
	var gatewayErr *domain.GatewayError
	switch {
	case errors.As(err, &gatewayErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": gatewayErr.Message})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, authsvc.ErrInvalidCredentials),
		errors.Is(err, authsvc.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, paymentsvc.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order state conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
