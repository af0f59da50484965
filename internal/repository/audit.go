package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"club_meetings/internal/domain"
	"club_meetings/pkg/logger"
)

type AuditRepository interface {
	CreateLog(ctx context.Context, entry *domain.AuditLog) error
}

type auditRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, log: log}
}

func (r *auditRepository) CreateLog(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_log (event_time, actor_user_id, actor_role, meeting_id, club_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		entry.EventTime, entry.ActorUserID, entry.ActorRole,
		entry.MeetingID, entry.ClubID, entry.EventType, entry.Payload,
	).Scan(&entry.ID)

	if err != nil {
		// Аудит не должен ронять основную операцию
		r.log.Error("Failed to create audit log", "error", err)
		return err
	}

	return nil
}
