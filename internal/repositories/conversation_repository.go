package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

// ConversationEntry is the repository's list row: the conversation, its
// latest message if any, and the caller's unread count.
type ConversationEntry struct {
	Conversation models.Conversation
	LastMessage  *models.Message
	UnreadCount  int
}

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	StartConversation(ctx context.Context, userID, peerID int) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int) (models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID int) (bool, error)
	ListConversations(ctx context.Context, userID int) ([]ConversationEntry, error)
	TouchConversation(ctx context.Context, conversationID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_low, user_high, updated_at, created_at`

// StartConversation resolves or creates the single conversation for the
// unordered pair. The insert races through the unique constraint on the
// sorted pair, so two concurrent calls settle on one row. Participant
// rows are written in the same transaction.
func (r *ConversationRepo) StartConversation(ctx context.Context, userID, peerID int) (models.Conversation, error) {
	if userID == peerID {
		return models.Conversation{}, ErrSelfConversation
	}
	low, high := models.CanonicalPair(userID, peerID)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer tx.Rollback()

	var conv models.Conversation
	err = tx.GetContext(ctx, &conv,
		`INSERT INTO conversations (user_low, user_high) VALUES ($1, $2)
         ON CONFLICT (user_low, user_high) DO UPDATE SET user_low = EXCLUDED.user_low
         RETURNING `+conversationColumns, low, high)
	if err != nil {
		return models.Conversation{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversation_participants (conversation_id, user_id)
         VALUES ($1, $2), ($1, $3) ON CONFLICT DO NOTHING`, conv.ID, low, high); err != nil {
		return models.Conversation{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// IsParticipant checks whether a user belongs to the conversation.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2)`,
		conversationID, userID)
	return exists, err
}

// ListConversations returns the user's conversations with last-message
// previews and unread counts. Ordering is recomputed from last message
// time (conversation creation time when empty), not the stored column.
func (r *ConversationRepo) ListConversations(ctx context.Context, userID int) ([]ConversationEntry, error) {
	type listRow struct {
		models.Conversation
		MsgID        *int         `db:"msg_id"`
		MsgSenderID  *int         `db:"msg_sender_id"`
		MsgContent   *string      `db:"msg_content"`
		MsgRead      *bool        `db:"msg_read"`
		MsgCreatedAt sql.NullTime `db:"msg_created_at"`
		UnreadCount  int          `db:"unread_count"`
	}

	query := `SELECT c.id, c.user_low, c.user_high, c.updated_at, c.created_at,
            m.id AS msg_id, m.sender_id AS msg_sender_id, m.content AS msg_content,
            m.read AS msg_read, m.created_at AS msg_created_at,
            (SELECT COUNT(*) FROM messages u
               WHERE u.conversation_id = c.id AND u.sender_id <> $1 AND u.read = FALSE) AS unread_count
        FROM conversations c
        JOIN conversation_participants p ON p.conversation_id = c.id AND p.user_id = $1
        LEFT JOIN LATERAL (
            SELECT id, sender_id, content, read, created_at FROM messages
            WHERE conversation_id = c.id
            ORDER BY created_at DESC, id DESC LIMIT 1
        ) m ON TRUE
        ORDER BY COALESCE(m.created_at, c.created_at) DESC`

	var rows []listRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	entries := make([]ConversationEntry, 0, len(rows))
	for _, row := range rows {
		entry := ConversationEntry{Conversation: row.Conversation, UnreadCount: row.UnreadCount}
		if row.MsgID != nil {
			entry.LastMessage = &models.Message{
				ID:             *row.MsgID,
				ConversationID: row.Conversation.ID,
				SenderID:       *row.MsgSenderID,
				Content:        *row.MsgContent,
				Read:           *row.MsgRead,
				CreatedAt:      row.MsgCreatedAt.Time,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TouchConversation bumps the last-updated timestamp after an append.
func (r *ConversationRepo) TouchConversation(ctx context.Context, conversationID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET updated_at=NOW() WHERE id=$1`, conversationID)
	return err
}
