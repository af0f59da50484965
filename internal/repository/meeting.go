package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"club_meetings/internal/domain"
	apperrors "club_meetings/pkg/errors"
	"club_meetings/pkg/logger"
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
	GetByJoinCode(ctx context.Context, code string) (*domain.Meeting, error)
	ListByClub(ctx context.Context, clubID uuid.UUID, limit, offset int) ([]*domain.Meeting, error)
	Update(ctx context.Context, meeting *domain.Meeting) error
}

type meetingRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMeetingRepository(db *pgxpool.Pool, log logger.Logger) MeetingRepository {
	return &meetingRepository{db: db, log: log}
}

const meetingColumns = `id, club_id, created_by, title, description, status,
	       scheduled_at, started_at, ended_at, participants, max_participants,
	       is_voice_only, join_code, created_at, updated_at`

func (r *meetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		INSERT INTO meetings (id, club_id, created_by, title, description, status,
		                      scheduled_at, participants, max_participants,
		                      is_voice_only, join_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		meeting.ID, meeting.ClubID, meeting.CreatedBy, meeting.Title, meeting.Description,
		meeting.Status, meeting.ScheduledAt, meeting.Participants, meeting.MaxParticipants,
		meeting.IsVoiceOnly, meeting.JoinCode, meeting.CreatedAt, meeting.UpdatedAt,
	).Scan(&meeting.CreatedAt, &meeting.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create meeting", "error", err)
		return err
	}

	return nil
}

func (r *meetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

	meeting := &domain.Meeting{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&meeting.ID, &meeting.ClubID, &meeting.CreatedBy, &meeting.Title, &meeting.Description,
		&meeting.Status, &meeting.ScheduledAt, &meeting.StartedAt, &meeting.EndedAt,
		&meeting.Participants, &meeting.MaxParticipants, &meeting.IsVoiceOnly,
		&meeting.JoinCode, &meeting.CreatedAt, &meeting.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("meeting %s", id)
		}
		r.log.Error("Failed to get meeting by ID", "error", err)
		return nil, err
	}

	return meeting, nil
}

func (r *meetingRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE join_code = $1`

	meeting := &domain.Meeting{}
	err := r.db.QueryRow(ctx, query, code).Scan(
		&meeting.ID, &meeting.ClubID, &meeting.CreatedBy, &meeting.Title, &meeting.Description,
		&meeting.Status, &meeting.ScheduledAt, &meeting.StartedAt, &meeting.EndedAt,
		&meeting.Participants, &meeting.MaxParticipants, &meeting.IsVoiceOnly,
		&meeting.JoinCode, &meeting.CreatedAt, &meeting.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("meeting with join code %s", code)
		}
		r.log.Error("Failed to get meeting by join code", "error", err)
		return nil, err
	}

	return meeting, nil
}

func (r *meetingRepository) ListByClub(ctx context.Context, clubID uuid.UUID, limit, offset int) ([]*domain.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE club_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, clubID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list meetings", "error", err)
		return nil, err
	}
	defer rows.Close()

	var meetings []*domain.Meeting
	for rows.Next() {
		meeting := &domain.Meeting{}
		err := rows.Scan(
			&meeting.ID, &meeting.ClubID, &meeting.CreatedBy, &meeting.Title, &meeting.Description,
			&meeting.Status, &meeting.ScheduledAt, &meeting.StartedAt, &meeting.EndedAt,
			&meeting.Participants, &meeting.MaxParticipants, &meeting.IsVoiceOnly,
			&meeting.JoinCode, &meeting.CreatedAt, &meeting.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan meeting", "error", err)
			return nil, err
		}
		meetings = append(meetings, meeting)
	}

	return meetings, nil
}

func (r *meetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, description = $3, status = $4, scheduled_at = $5,
		    started_at = $6, ended_at = $7, participants = $8,
		    max_participants = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		meeting.ID, meeting.Title, meeting.Description, meeting.Status,
		meeting.ScheduledAt, meeting.StartedAt, meeting.EndedAt, meeting.Participants,
		meeting.MaxParticipants,
	).Scan(&meeting.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("meeting %s", meeting.ID)
		}
		r.log.Error("Failed to update meeting", "error", err)
		return err
	}

	return nil
}
