package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID          int64                  `json:"id"`
	EventTime   time.Time              `json:"event_time"`
	ActorUserID *uuid.UUID             `json:"actor_user_id,omitempty"`
	ActorRole   string                 `json:"actor_role"`
	MeetingID   *uuid.UUID             `json:"meeting_id,omitempty"`
	ClubID      *uuid.UUID             `json:"club_id,omitempty"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
}

const (
	ActorRoleUser   = "user"
	ActorRoleAdmin  = "admin"
	ActorRoleSystem = "system"
)

const (
	EventTypeMeetingCreated   = "MEETING_CREATED"
	EventTypeMeetingStarted   = "MEETING_STARTED"
	EventTypeMeetingEnded     = "MEETING_ENDED"
	EventTypeMeetingCancelled = "MEETING_CANCELLED"
	EventTypeMeetingJoined    = "MEETING_JOINED"
	EventTypeMeetingLeft      = "MEETING_LEFT"
	EventTypeClubCreated      = "CLUB_CREATED"
	EventTypeClubJoined       = "CLUB_JOINED"
)
