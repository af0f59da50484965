package domain

import (
	"time"

	"github.com/google/uuid"
)

// MeetingMessage - запись в логе сообщений встречи. Лог append-only:
// сообщения не редактируются и не удаляются, порядок по (created_at, id).
type MeetingMessage struct {
	ID          int64      `json:"id"`
	MeetingID   uuid.UUID  `json:"meeting_id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	MessageType string     `json:"message_type"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
}

const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)
