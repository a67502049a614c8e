package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/password"
	"messaging-service/internal/logger"
	"messaging-service/internal/user"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates by email and password. Unknown email and wrong
// password produce byte-identical responses so the endpoint cannot be
// used to enumerate accounts.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"error":   err.Error(),
		})
		return
	}

	u, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, user.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Invalid email or password",
		})
		return
	}
	if err != nil {
		logger.Error("login lookup failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Login failed",
		})
		return
	}

	if u.PasswordHash == "" || !password.Verify(u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Invalid email or password",
		})
		return
	}

	access, refresh, err := h.issueTokenPair(c.Request.Context(), u.ID)
	if err != nil {
		logger.Error("token issuance failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Login failed",
		})
		return
	}

	if err := h.users.TouchActivity(c.Request.Context(), u.ID); err != nil {
		logger.Warn("failed to update last_active", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         u,
		"accessToken":  access,
		"refreshToken": refresh,
	})
}
