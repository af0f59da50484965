package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"club_meetings/pkg/logger"
)

type Repositories struct {
	User      UserRepository
	Club      ClubRepository
	Meeting   MeetingRepository
	Message   MessageRepository
	Audit     AuditRepository
	RateLimit RateLimitRepository
	Presence  PresenceRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db, log),
		Club:      NewClubRepository(db, log),
		Meeting:   NewMeetingRepository(db, log),
		Message:   NewMessageRepository(db, log),
		Audit:     NewAuditRepository(db, log),
		RateLimit: NewRateLimitRepository(rdb, log),
		Presence:  NewPresenceRepository(rdb, log),
	}
}
