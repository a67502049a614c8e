package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/token"
	"messaging-service/internal/logger"
	"messaging-service/internal/middleware"
	"messaging-service/internal/session"
)

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes the presented refresh token and tears down the browser
// session, when either exists. It is idempotent: unknown tokens and
// missing sessions are not errors.
func (h *Handler) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	if req.RefreshToken != "" {
		if userID, err := h.tokens.VerifyRefresh(req.RefreshToken); err == nil {
			err := h.users.RemoveRefreshToken(
				c.Request.Context(),
				userID,
				token.Fingerprint(req.RefreshToken),
			)
			if err != nil {
				logger.Error("refresh token revocation failed", map[string]any{
					"user_id": userID,
					"error":   err.Error(),
				})
				c.JSON(http.StatusInternalServerError, gin.H{
					"message": "Logout failed",
				})
				return
			}
		}
	}

	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		h.sessions.Destroy(c.Request.Context(), cookie.Value)
	}
	session.ClearCookie(c.Writer, h.cookieOptions())

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
	})
}

// LogoutAll revokes every refresh credential for the authenticated
// user. Active browser sessions are untouched; ending those takes a
// separate logout call.
func (h *Handler) LogoutAll(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Not authenticated",
		})
		return
	}

	if err := h.users.RemoveAllRefreshTokens(c.Request.Context(), u.ID); err != nil {
		logger.Error("bulk refresh token revocation failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Logout failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out from all devices",
	})
}
