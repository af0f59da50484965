package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"club_meetings/internal/domain"
	"club_meetings/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.MeetingMessage) error
	ListSince(ctx context.Context, meetingID uuid.UUID, afterID int64, limit int) ([]*domain.MeetingMessage, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.MeetingMessage) error {
	query := `
		INSERT INTO meeting_messages (meeting_id, sender_id, message_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.MeetingID, message.SenderID, message.MessageType,
		message.Content, message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

// ListSince возвращает сообщения с id больше afterID в порядке возрастания.
// Чтение без побочных эффектов: повторный вызов с тем же курсором безопасен.
func (r *messageRepository) ListSince(ctx context.Context, meetingID uuid.UUID, afterID int64, limit int) ([]*domain.MeetingMessage, error) {
	query := `
		SELECT id, meeting_id, sender_id, message_type, content, created_at
		FROM meeting_messages
		WHERE meeting_id = $1 AND id > $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, meetingID, afterID, limit)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.MeetingMessage
	for rows.Next() {
		message := &domain.MeetingMessage{}
		err := rows.Scan(
			&message.ID, &message.MeetingID, &message.SenderID,
			&message.MessageType, &message.Content, &message.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}
