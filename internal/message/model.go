package message

import "time"

const MaxContentLength = 1000

// Message is one direct message between two users. Deletion is soft:
// the row survives with is_deleted set so conversations keep their
// shape for the other participant.
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	RecipientID string     `json:"recipientId"`
	Content     string     `json:"content"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Page describes a pagination window over a conversation.
type Page struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}
