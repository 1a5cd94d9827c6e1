package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var ErrEmptyMessage = errors.New("message content is empty")

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID, senderID int, content string) (models.Message, error)
	ListMessages(ctx context.Context, conversationID int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to a conversation. Empty or
// whitespace-only content is rejected before touching the database.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID, senderID int, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyMessage
	}
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (conversation_id, sender_id, content) VALUES ($1, $2, $3)
         RETURNING id, conversation_id, sender_id, content, read, created_at`,
		conversationID, senderID, content)
	return msg, err
}

// ListMessages returns all messages of a conversation in creation order,
// ids breaking timestamp ties.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, conversation_id, sender_id, content, read, created_at
         FROM messages WHERE conversation_id=$1
         ORDER BY created_at ASC, id ASC`, conversationID)
	return msgs, err
}

// MarkRead flags every message the peer sent in the conversation as read.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE
         WHERE conversation_id=$1 AND sender_id <> $2 AND read = FALSE`,
		conversationID, readerID)
	return err
}
