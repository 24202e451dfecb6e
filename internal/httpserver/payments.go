package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	paymentsvc "course-marketplace/internal/service/payment"
)

func createOrderHandler(payments PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in paymentsvc.CreateOrderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		var userID *int64
		if id, ok := currentUserID(c); ok {
			userID = &id
		}

		result, err := payments.CreateRemoteOrder(c.Request.Context(), userID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func captureOrderHandler(payments PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		gatewayOrderID, err := readGatewayOrderID(c.Request.Body)
		if err != nil || gatewayOrderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gateway order id required"})
			return
		}

		settled, err := payments.Settle(c.Request.Context(), userID, gatewayOrderID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settled)
	}
}

// readGatewayOrderID accepts either a bare JSON string body or an
// {"orderId": "..."} object.
func readGatewayOrderID(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString), nil
	}

	var asObject struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return "", err
	}
	return strings.TrimSpace(asObject.OrderID), nil
}
