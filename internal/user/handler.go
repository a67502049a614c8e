package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messaging-service/internal/logger"
)

// Directory is the slice of the store the user endpoints need.
type Directory interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// currentUserFn reads the authenticated user from the request context.
// Injected so the handler does not import the middleware package (which
// already imports this one).
type currentUserFn func(c *gin.Context) (*User, bool)

type Handler struct {
	users       Directory
	currentUser currentUserFn
}

func NewHandler(users Directory, currentUser func(c *gin.Context) (*User, bool)) *Handler {
	return &Handler{users: users, currentUser: currentUser}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	g := r.Group("/api/users")
	g.Use(requireAuth)

	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		logger.Error("user listing failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to list users",
		})
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid ID format",
		})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "User not found",
		})
		return
	}
	if err != nil {
		logger.Error("user lookup failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to load user",
		})
		return
	}

	c.JSON(http.StatusOK, u)
}

// Delete removes a user record. Only the owner may delete their own
// record; any other authenticated caller is forbidden.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid ID format",
		})
		return
	}

	current, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Not authenticated",
		})
		return
	}
	if current.ID != id {
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Cannot delete another user's account",
		})
		return
	}

	err := h.users.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "User not found",
		})
		return
	}
	if err != nil {
		logger.Error("user deletion failed", map[string]any{
			"user_id": id,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to delete user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
