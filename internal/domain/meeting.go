package domain

import (
	"time"

	"github.com/google/uuid"
)

type Meeting struct {
	ID              uuid.UUID   `json:"id"`
	ClubID          uuid.UUID   `json:"club_id"`
	CreatedBy       uuid.UUID   `json:"created_by"`
	Title           string      `json:"title"`
	Description     *string     `json:"description,omitempty"`
	Status          string      `json:"status"`
	ScheduledAt     *time.Time  `json:"scheduled_at,omitempty"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	Participants    []uuid.UUID `json:"participants"`
	MaxParticipants *int        `json:"max_participants,omitempty"`
	IsVoiceOnly     bool        `json:"is_voice_only"`
	JoinCode        string      `json:"join_code"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusActive    = "active"
	MeetingStatusEnded     = "ended"
	MeetingStatusCancelled = "cancelled"
)

// HasParticipant проверяет наличие пользователя в множестве участников
func (m *Meeting) HasParticipant(userID uuid.UUID) bool {
	for _, id := range m.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
