package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/token"
	"messaging-service/internal/logger"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new access token. Signature
// and expiry are necessary but not sufficient: the registry must still
// contain the credential, otherwise it has been revoked. The presented
// refresh token is deliberately not rotated; it stays valid until
// logout or natural expiry.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Refresh token required",
		})
		return
	}

	userID, err := h.tokens.VerifyRefresh(req.RefreshToken)
	if errors.Is(err, token.ErrTokenExpired) {
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Refresh token expired",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Invalid refresh token",
		})
		return
	}

	outstanding, err := h.users.HasRefreshToken(
		c.Request.Context(),
		userID,
		token.Fingerprint(req.RefreshToken),
	)
	if err != nil {
		logger.Error("refresh token lookup failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Token refresh failed",
		})
		return
	}
	if !outstanding {
		// Valid by signature but revoked.
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Invalid refresh token",
		})
		return
	}

	access, err := h.tokens.IssueAccess(userID)
	if err != nil {
		logger.Error("access token issuance failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Token refresh failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": access,
	})
}
