package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

type messageRow struct {
	ID           uuid.UUID
	JobRequestID uuid.UUID
	SenderID     uuid.UUID
	Content      string
	MessageType  string
	ReadAt       *time.Time
	CreatedAt    time.Time
}

func (r *MessageRepository) Insert(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Raw(`
		INSERT INTO messages (job_request_id, sender_id, content, message_type)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`, msg.JobRequestID, msg.SenderID, msg.Content, msg.Type).Row().Scan(&msg.ID, &msg.CreatedAt)
}

// ListForJob returns the thread ordered by creation time, id as tiebreak so
// same-timestamp rows keep insertion order.
func (r *MessageRepository) ListForJob(ctx context.Context, jobRequestID uuid.UUID) ([]model.Message, error) {
	var rows []messageRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, job_request_id, sender_id, content, message_type, read_at, created_at
		FROM messages
		WHERE job_request_id = ?
		ORDER BY created_at ASC, id ASC
	`, jobRequestID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, model.Message{
			ID:           row.ID,
			JobRequestID: row.JobRequestID,
			SenderID:     row.SenderID,
			Content:      row.Content,
			Type:         model.MessageType(row.MessageType),
			ReadAt:       row.ReadAt,
			CreatedAt:    row.CreatedAt,
		})
	}
	return messages, nil
}

// MarkRead stamps read_at on the other party's unread messages.
func (r *MessageRepository) MarkRead(ctx context.Context, jobRequestID, readerID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE messages SET read_at = ?
		WHERE job_request_id = ? AND sender_id <> ? AND read_at IS NULL
	`, at, jobRequestID, readerID).Error
}
