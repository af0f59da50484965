package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"club_meetings/pkg/logger"
)

const (
	// TTL ключа присутствия - встреча без heartbeat-ов очищается сама
	PresenceTTL = 2 * time.Hour

	presenceKeyPrefix = "meeting:%s:presence"
)

// PresenceRepository хранит heartbeat-ы участников встречи в Redis.
// Score в sorted set - unix-время последнего сигнала; свежесть
// определяется на чтении, протухшие записи периодически подчищаются.
type PresenceRepository interface {
	Heartbeat(ctx context.Context, meetingID, userID uuid.UUID) error
	ActiveSince(ctx context.Context, meetingID uuid.UUID, window time.Duration) ([]uuid.UUID, error)
	Remove(ctx context.Context, meetingID, userID uuid.UUID) error
	Clear(ctx context.Context, meetingID uuid.UUID) error
}

type presenceRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewPresenceRepository(rdb *redis.Client, log logger.Logger) PresenceRepository {
	return &presenceRepository{rdb: rdb, log: log}
}

func (r *presenceRepository) key(meetingID uuid.UUID) string {
	return fmt.Sprintf(presenceKeyPrefix, meetingID.String())
}

func (r *presenceRepository) Heartbeat(ctx context.Context, meetingID, userID uuid.UUID) error {
	key := r.key(meetingID)

	err := r.rdb.ZAdd(ctx, key, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: userID.String(),
	}).Err()
	if err != nil {
		r.log.Error("Failed to record heartbeat", "error", err, "meeting_id", meetingID)
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	if err := r.rdb.Expire(ctx, key, PresenceTTL).Err(); err != nil {
		r.log.Warn("Failed to set TTL on presence key", "error", err)
	}

	return nil
}

func (r *presenceRepository) ActiveSince(ctx context.Context, meetingID uuid.UUID, window time.Duration) ([]uuid.UUID, error) {
	key := r.key(meetingID)
	minScore := float64(time.Now().Add(-window).Unix())

	members, err := r.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%.0f", minScore),
		Max: "+inf",
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return []uuid.UUID{}, nil
		}
		r.log.Error("Failed to read presence", "error", err, "meeting_id", meetingID)
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.log.Warn("Skipping malformed presence member", "member", m)
			continue
		}
		ids = append(ids, id)
	}

	// Подчищаем старые записи, чтобы set не рос бесконечно
	_ = r.rdb.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%.0f", minScore)).Err()

	return ids, nil
}

func (r *presenceRepository) Remove(ctx context.Context, meetingID, userID uuid.UUID) error {
	err := r.rdb.ZRem(ctx, r.key(meetingID), userID.String()).Err()
	if err != nil {
		r.log.Error("Failed to remove presence", "error", err, "meeting_id", meetingID)
		return err
	}
	return nil
}

func (r *presenceRepository) Clear(ctx context.Context, meetingID uuid.UUID) error {
	err := r.rdb.Del(ctx, r.key(meetingID)).Err()
	if err != nil {
		r.log.Error("Failed to clear presence", "error", err, "meeting_id", meetingID)
		return err
	}
	return nil
}
