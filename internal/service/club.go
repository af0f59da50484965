package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"club_meetings/internal/domain"
	"club_meetings/internal/repository"
	apperrors "club_meetings/pkg/errors"
	"club_meetings/pkg/logger"
)

type ClubService interface {
	Create(ctx context.Context, creatorID uuid.UUID, name string, description *string) (*domain.Club, error)
	GetByID(ctx context.Context, clubID uuid.UUID) (*domain.Club, error)
	JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*domain.Club, error)
	IsAdmin(ctx context.Context, clubID, userID uuid.UUID) (bool, error)
}

type clubService struct {
	clubRepo  repository.ClubRepository
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewClubService(clubRepo repository.ClubRepository, auditRepo repository.AuditRepository, log logger.Logger) ClubService {
	return &clubService{
		clubRepo:  clubRepo,
		auditRepo: auditRepo,
		log:       log,
	}
}

func (s *clubService) Create(ctx context.Context, creatorID uuid.UUID, name string, description *string) (*domain.Club, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("club name is required")
	}

	club := &domain.Club{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
		JoinCode:    generateJoinCode(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.clubRepo.Create(ctx, club); err != nil {
		s.log.Error("Failed to create club", "error", err)
		return nil, err
	}

	// Создатель становится администратором клуба
	member := &domain.ClubMember{
		ClubID:   club.ID,
		UserID:   creatorID,
		Role:     domain.ClubRoleAdmin,
		JoinedAt: time.Now(),
	}
	if err := s.clubRepo.AddMember(ctx, member); err != nil {
		s.log.Error("Failed to add club creator as admin", "error", err)
		return nil, err
	}

	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:   time.Now(),
		ActorUserID: &creatorID,
		ActorRole:   domain.ActorRoleUser,
		ClubID:      &club.ID,
		EventType:   domain.EventTypeClubCreated,
		Payload:     map[string]interface{}{"name": name},
	}); err != nil {
		s.log.Warn("Failed to write audit log", "error", err)
	}

	return club, nil
}

func (s *clubService) GetByID(ctx context.Context, clubID uuid.UUID) (*domain.Club, error) {
	return s.clubRepo.GetByID(ctx, clubID)
}

func (s *clubService) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*domain.Club, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.Validation("join code is required")
	}

	club, err := s.clubRepo.GetByJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}

	member := &domain.ClubMember{
		ClubID:   club.ID,
		UserID:   userID,
		Role:     domain.ClubRoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.clubRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:   time.Now(),
		ActorUserID: &userID,
		ActorRole:   domain.ActorRoleUser,
		ClubID:      &club.ID,
		EventType:   domain.EventTypeClubJoined,
		Payload:     nil,
	}); err != nil {
		s.log.Warn("Failed to write audit log", "error", err)
	}

	return club, nil
}

func (s *clubService) IsAdmin(ctx context.Context, clubID, userID uuid.UUID) (bool, error) {
	member, err := s.clubRepo.GetMember(ctx, clubID, userID)
	if err != nil {
		return false, err
	}
	return member.Role == domain.ClubRoleAdmin, nil
}
