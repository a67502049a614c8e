package message

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messaging-service/internal/logger"
	"messaging-service/internal/user"
)

// MessageStore is the slice of the store the endpoints need.
type MessageStore interface {
	Create(ctx context.Context, senderID, recipientID, content string) (*Message, error)
	Conversation(ctx context.Context, userID, otherID string, page, limit int) ([]Message, Page, error)
	MarkRead(ctx context.Context, messageID, recipientID string) (*Message, error)
	SoftDelete(ctx context.Context, messageID, senderID string) error
}

// RecipientChecker verifies the recipient exists before a send.
type RecipientChecker interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Handler struct {
	messages    MessageStore
	users       RecipientChecker
	currentUser func(c *gin.Context) (*user.User, bool)
}

func NewHandler(
	messages MessageStore,
	users RecipientChecker,
	currentUser func(c *gin.Context) (*user.User, bool),
) *Handler {
	return &Handler{
		messages:    messages,
		users:       users,
		currentUser: currentUser,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	g := r.Group("/api/messages")
	g.Use(requireAuth)

	g.POST("", h.Send)
	g.GET("/conversation/:otherID", h.Conversation)
	g.PATCH("/:id/read", h.MarkRead)
	g.DELETE("/:id", h.Delete)
}

type sendRequest struct {
	Recipient string `json:"recipient" binding:"required,uuid"`
	Content   string `json:"content" binding:"required,max=1000"`
}

func (h *Handler) Send(c *gin.Context) {
	sender, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"error":   err.Error(),
		})
		return
	}

	if _, err := h.users.GetByID(c.Request.Context(), req.Recipient); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Recipient not found"})
			return
		}
		logger.Error("recipient lookup failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send message"})
		return
	}

	m, err := h.messages.Create(c.Request.Context(), sender.ID, req.Recipient, req.Content)
	if err != nil {
		logger.Error("message creation failed", map[string]any{
			"sender_id": sender.ID,
			"error":     err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    m,
	})
}

func (h *Handler) Conversation(c *gin.Context) {
	current, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	otherID := c.Param("otherID")
	if _, err := uuid.Parse(otherID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ID format"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	messages, pagination, err := h.messages.Conversation(
		c.Request.Context(), current.ID, otherID, page, limit,
	)
	if err != nil {
		logger.Error("conversation query failed", map[string]any{
			"user_id": current.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": pagination,
	})
}

func (h *Handler) MarkRead(c *gin.Context) {
	current, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ID format"})
		return
	}

	m, err := h.messages.MarkRead(c.Request.Context(), id, current.ID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		return
	}
	if err != nil {
		logger.Error("mark read failed", map[string]any{
			"message_id": id,
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message marked as read",
		"data":    m,
	})
}

func (h *Handler) Delete(c *gin.Context) {
	current, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ID format"})
		return
	}

	err := h.messages.SoftDelete(c.Request.Context(), id, current.ID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		return
	}
	if err != nil {
		logger.Error("message deletion failed", map[string]any{
			"message_id": id,
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
