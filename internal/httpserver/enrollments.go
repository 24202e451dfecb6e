package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func listEnrollmentsHandler(enrollments EnrollmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		out, err := enrollments.ListByStudent(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
