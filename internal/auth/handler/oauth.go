package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/logger"
	"messaging-service/internal/session"
	"messaging-service/internal/user"
)

// oauthLogin starts the authorization code flow for one provider.
func (h *Handler) oauthLogin(providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.providers.Get(providerName)
		if err != nil {
			c.JSON(http.StatusNotImplemented, gin.H{
				"message": providerName + " OAuth not configured",
			})
			return
		}

		state := h.generateState(c)
		_, codeChallenge := h.generatePKCE(c)

		c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
	}
}

// oauthCallback completes the flow: code exchange, identity resolution,
// then both a browser session and an API token pair for the same login
// event.
func (h *Handler) oauthCallback(providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.providers.Get(providerName)
		if err != nil {
			c.JSON(http.StatusNotImplemented, gin.H{
				"message": providerName + " OAuth not configured",
			})
			return
		}

		if !validateState(c) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid state",
			})
			return
		}

		if errParam := c.Query("error"); errParam != "" {
			logger.Warn("oauth callback returned error", map[string]any{
				"provider": providerName,
				"error":    errParam,
				"desc":     c.Query("error_description"),
			})
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication failed",
			})
			return
		}

		code := c.Query("code")
		if code == "" {
			logger.Error("oauth callback missing code and error", map[string]any{
				"provider": providerName,
			})
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Missing authorization code",
			})
			return
		}

		codeVerifier := getPKCEVerifier(c)
		if codeVerifier == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Missing PKCE verifier",
			})
			return
		}

		identity, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
		if err != nil {
			logger.Warn("oauth code exchange failed", map[string]any{
				"provider": providerName,
				"error":    err.Error(),
			})
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication failed",
			})
			return
		}

		u, err := h.resolver.Resolve(c.Request.Context(), identity)
		if errors.Is(err, user.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"message": "Could not create account",
			})
			return
		}
		if err != nil {
			logger.Error("identity resolution failed", map[string]any{
				"provider": providerName,
				"error":    err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to resolve user",
			})
			return
		}

		cookieValue, sess, err := h.sessions.Establish(c.Request.Context(), u.ID)
		if err != nil {
			logger.Error("session establishment failed", map[string]any{
				"user_id": u.ID,
				"error":   err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to create session",
			})
			return
		}
		session.SetCookie(c.Writer, cookieValue, sess.ExpiresAt, h.cookieOptions())

		access, refresh, err := h.issueTokenPair(c.Request.Context(), u.ID)
		if err != nil {
			logger.Error("token issuance failed", map[string]any{
				"user_id": u.ID,
				"error":   err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to issue tokens",
			})
			return
		}

		if err := h.users.TouchActivity(c.Request.Context(), u.ID); err != nil {
			logger.Warn("failed to update last_active", map[string]any{
				"user_id": u.ID,
				"error":   err.Error(),
			})
		}

		logger.Info("oauth login successful", map[string]any{
			"provider": providerName,
			"user_id":  u.ID,
		})

		c.JSON(http.StatusOK, gin.H{
			"message":      "Authentication successful",
			"user":         u,
			"accessToken":  access,
			"refreshToken": refresh,
		})
	}
}
