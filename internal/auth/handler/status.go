package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/middleware"
)

// Status reports whether and how the request authenticated. It never
// fails: unauthenticated callers get authenticated=false.
func (h *Handler) Status(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"method":        middleware.MethodNone,
			"user":          nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"method":        middleware.CurrentMethod(c),
		"user":          u,
	})
}
