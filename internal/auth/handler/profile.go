package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/logger"
	"messaging-service/internal/middleware"
	"messaging-service/internal/user"
)

func (h *Handler) GetProfile(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"user":    u,
	})
}

type updateProfileRequest struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Bio            *string `json:"bio" binding:"omitempty,max=200"`
	ProfilePicture *string `json:"profilePicture"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Not authenticated",
		})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"error":   err.Error(),
		})
		return
	}

	if req.FirstName == nil && req.LastName == nil && req.Bio == nil && req.ProfilePicture == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "No valid updates provided",
		})
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), u.ID, user.ProfileUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		logger.Error("profile update failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Profile update failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}
