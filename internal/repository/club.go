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

type ClubRepository interface {
	Create(ctx context.Context, club *domain.Club) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Club, error)
	GetByJoinCode(ctx context.Context, code string) (*domain.Club, error)
	AddMember(ctx context.Context, member *domain.ClubMember) error
	GetMember(ctx context.Context, clubID, userID uuid.UUID) (*domain.ClubMember, error)
}

type clubRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewClubRepository(db *pgxpool.Pool, log logger.Logger) ClubRepository {
	return &clubRepository{db: db, log: log}
}

func (r *clubRepository) Create(ctx context.Context, club *domain.Club) error {
	query := `
		INSERT INTO clubs (id, name, description, created_by, join_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		club.ID, club.Name, club.Description, club.CreatedBy,
		club.JoinCode, club.CreatedAt, club.UpdatedAt,
	).Scan(&club.CreatedAt, &club.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create club", "error", err)
		return err
	}

	return nil
}

func (r *clubRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Club, error) {
	query := `
		SELECT id, name, description, created_by, join_code, created_at, updated_at
		FROM clubs
		WHERE id = $1
	`

	club := &domain.Club{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&club.ID, &club.Name, &club.Description, &club.CreatedBy,
		&club.JoinCode, &club.CreatedAt, &club.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("club %s", id)
		}
		r.log.Error("Failed to get club by ID", "error", err)
		return nil, err
	}

	return club, nil
}

func (r *clubRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Club, error) {
	query := `
		SELECT id, name, description, created_by, join_code, created_at, updated_at
		FROM clubs
		WHERE join_code = $1
	`

	club := &domain.Club{}
	err := r.db.QueryRow(ctx, query, code).Scan(
		&club.ID, &club.Name, &club.Description, &club.CreatedBy,
		&club.JoinCode, &club.CreatedAt, &club.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("club with join code %s", code)
		}
		r.log.Error("Failed to get club by join code", "error", err)
		return nil, err
	}

	return club, nil
}

func (r *clubRepository) AddMember(ctx context.Context, member *domain.ClubMember) error {
	query := `
		INSERT INTO club_members (club_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (club_id, user_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, member.ClubID, member.UserID, member.Role, member.JoinedAt)
	if err != nil {
		r.log.Error("Failed to add club member", "error", err)
		return err
	}

	return nil
}

func (r *clubRepository) GetMember(ctx context.Context, clubID, userID uuid.UUID) (*domain.ClubMember, error) {
	query := `
		SELECT club_id, user_id, role, joined_at
		FROM club_members
		WHERE club_id = $1 AND user_id = $2
	`

	member := &domain.ClubMember{}
	err := r.db.QueryRow(ctx, query, clubID, userID).Scan(
		&member.ClubID, &member.UserID, &member.Role, &member.JoinedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("member %s in club %s", userID, clubID)
		}
		r.log.Error("Failed to get club member", "error", err)
		return nil, err
	}

	return member, nil
}
