package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/password"
	"messaging-service/internal/logger"
	"messaging-service/internal/user"
)

type registerRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=30"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=7"`
	FirstName      string `json:"firstName" binding:"required"`
	LastName       string `json:"lastName" binding:"required"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio" binding:"max=200"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"error":   err.Error(),
		})
		return
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		logger.Error("password hashing failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Registration failed",
		})
		return
	}

	newUser := &user.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: req.ProfilePicture,
		Bio:            req.Bio,
		AuthProvider:   user.ProviderLocal,
	}

	id, err := h.users.Create(c.Request.Context(), newUser)
	if errors.Is(err, user.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{
			"message": "User already exists",
		})
		return
	}
	if err != nil {
		logger.Error("user creation failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Registration failed",
		})
		return
	}

	created, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Registration failed",
		})
		return
	}

	access, refresh, err := h.issueTokenPair(c.Request.Context(), id)
	if err != nil {
		logger.Error("token issuance failed", map[string]any{
			"user_id": id,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Registration failed",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "User registered successfully",
		"user":         created,
		"accessToken":  access,
		"refreshToken": refresh,
	})
}
