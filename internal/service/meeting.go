package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"club_meetings/internal/domain"
	"club_meetings/internal/repository"
	apperrors "club_meetings/pkg/errors"
	"club_meetings/pkg/logger"
	"club_meetings/pkg/metrics"
)

type CreateMeetingInput struct {
	Title           string
	Description     *string
	ScheduledAt     *time.Time
	MaxParticipants *int
	IsVoiceOnly     bool
}

// MeetingService управляет жизненным циклом встречи:
// scheduled -> active -> ended/cancelled, без переходов назад.
// Все мутации одной встречи сериализуются через MeetingLocks.
type MeetingService interface {
	Create(ctx context.Context, clubID, creatorID uuid.UUID, in CreateMeetingInput) (*domain.Meeting, error)
	GetByID(ctx context.Context, meetingID uuid.UUID) (*domain.Meeting, error)
	ListByClub(ctx context.Context, clubID uuid.UUID, limit, offset int) ([]*domain.Meeting, error)
	Start(ctx context.Context, meetingID, requesterID uuid.UUID) (*domain.Meeting, error)
	End(ctx context.Context, meetingID, requesterID uuid.UUID) (*domain.Meeting, error)
	Cancel(ctx context.Context, meetingID, requesterID uuid.UUID) (*domain.Meeting, error)
	Join(ctx context.Context, meetingID, userID uuid.UUID) (*domain.Meeting, error)
	Leave(ctx context.Context, meetingID, userID uuid.UUID) (*domain.Meeting, error)
}

type meetingService struct {
	meetingRepo repository.MeetingRepository
	clubRepo    repository.ClubRepository
	clubs       ClubService
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	messages    MessageService
	notifier    Notifier
	locks       *MeetingLocks
	log         logger.Logger
}

func NewMeetingService(
	meetingRepo repository.MeetingRepository,
	clubRepo repository.ClubRepository,
	clubs ClubService,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	messages MessageService,
	notifier Notifier,
	locks *MeetingLocks,
	log logger.Logger,
) MeetingService {
	return &meetingService{
		meetingRepo: meetingRepo,
		clubRepo:    clubRepo,
		clubs:       clubs,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		messages:    messages,
		notifier:    notifier,
		locks:       locks,
		log:         log,
	}
}

func (s *meetingService) Create(ctx context.Context, clubID, creatorID uuid.UUID, in CreateMeetingInput) (*domain.Meeting, error) {
	if in.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if in.MaxParticipants != nil && *in.MaxParticipants < 2 {
		return nil, apperrors.Validation("max_participants must be at least 2")
	}

	if err := s.requireAdmin(ctx, clubID, creatorID); err != nil {
		return nil, err
	}

	meeting := &domain.Meeting{
		ID:              uuid.New(),
		ClubID:          clubID,
		CreatedBy:       creatorID,
		Title:           in.Title,
		Description:     in.Description,
		Status:          domain.MeetingStatusScheduled,
		ScheduledAt:     in.ScheduledAt,
		Participants:    []uuid.UUID{},
		MaxParticipants: in.MaxParticipants,
		IsVoiceOnly:     in.IsVoiceOnly,
		JoinCode:        generateJoinCode(),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		s.log.Error("Failed to create meeting", "error", err)
		return nil, err
	}

	s.audit(ctx, &creatorID, domain.ActorRoleAdmin, &meeting.ID, &clubID,
		domain.EventTypeMeetingCreated, map[string]interface{}{"title": in.Title})

	s.notifier.Publish(ClubRoom(clubID), Event{
		Name:      EventMeetingUpdate,
		MeetingID: &meeting.ID,
		ClubID:    &clubID,
		Payload:   meeting,
	})

	return meeting, nil
}

func (s *meetingService) GetByID(ctx context.Context, meetingID uuid.UUID) (*domain.Meeting, error) {
	return s.meetingRepo.GetByID(ctx, meetingID)
}

func (s *meetingService) ListByClub(ctx context.Context, clubID uuid.UUID, limit, offset int) ([]*domain.Meeting, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.meetingRepo.ListByClub(ctx, clubID, limit, offset)
}

func (s *meetingService) Start(ctx context.Context, meetingID, requesterID uuid.UUID) (*domain.Meeting, error) {
	lock := s.locks.Get(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, meeting.ClubID, requesterID); err != nil {
		metrics.RecordLifecycleTransition("start", "rejected")
		return nil, err
	}

	if meeting.Status != domain.MeetingStatusScheduled {
		metrics.RecordLifecycleTransition("start", "rejected")
		return nil, apperrors.InvalidState("cannot start meeting in status %q", meeting.Status)
	}

	now := time.Now()
	meeting.Status = domain.MeetingStatusActive
	meeting.StartedAt = &now

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}
	metrics.RecordLifecycleTransition("start", "ok")

	s.audit(ctx, &requesterID, domain.ActorRoleAdmin, &meeting.ID, &meeting.ClubID,
		domain.EventTypeMeetingStarted, nil)

	s.publishMeetingUpdate(meeting)
	return meeting, nil
}

func (s *meetingService) End(ctx context.Context, meetingID, requesterID uuid.UUID) (*domain.Meeting, error) {
	lock := s.locks.Get(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, meeting.ClubID, requesterID); err != nil {
		metrics.RecordLifecycleTransition("end", "rejected")
		return nil, err
	}

	if meeting.Status != domain.MeetingStatusActive {
		metrics.RecordLifecycleTransition("end", "rejected")
		return nil, apperrors.InvalidState("cannot end meeting in status %q", meeting.Status)
	}

	now := time.Now()
	meeting.Status = domain.MeetingStatusEnded
	meeting.EndedAt = &now
	meeting.Participants = []uuid.UUID{}

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}
	metrics.RecordLifecycleTransition("end", "ok")

	if _, err := s.messages.AppendSystem(ctx, meetingID, "Meeting ended"); err != nil {
		s.log.Warn("Failed to append system message", "error", err, "meeting_id", meetingID)
	}

	s.audit(ctx, &requesterID, domain.ActorRoleAdmin, &meeting.ID, &meeting.ClubID,
		domain.EventTypeMeetingEnded, nil)

	s.publishMeetingUpdate(meeting)
	return meeting, nil
}

func (s *meetingService) Cancel(ctx context.Context, meetingID, requesterID uuid.UUID) (*domain.Meeting, error) {
	lock := s.locks.Get(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, meeting.ClubID, requesterID); err != nil {
		metrics.RecordLifecycleTransition("cancel", "rejected")
		return nil, err
	}

	// Отменить можно только еще не начавшуюся встречу
	if meeting.Status != domain.MeetingStatusScheduled {
		metrics.RecordLifecycleTransition("cancel", "rejected")
		return nil, apperrors.InvalidState("cannot cancel meeting in status %q", meeting.Status)
	}

	meeting.Status = domain.MeetingStatusCancelled

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}
	metrics.RecordLifecycleTransition("cancel", "ok")

	s.audit(ctx, &requesterID, domain.ActorRoleAdmin, &meeting.ID, &meeting.ClubID,
		domain.EventTypeMeetingCancelled, nil)

	s.publishMeetingUpdate(meeting)
	return meeting, nil
}

func (s *meetingService) Join(ctx context.Context, meetingID, userID uuid.UUID) (*domain.Meeting, error) {
	lock := s.locks.Get(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if _, err := s.clubRepo.GetMember(ctx, meeting.ClubID, userID); err != nil {
		metrics.RecordLifecycleTransition("join", "rejected")
		return nil, apperrors.Authorization("only club members can join meetings")
	}

	if meeting.Status != domain.MeetingStatusActive {
		metrics.RecordLifecycleTransition("join", "rejected")
		return nil, apperrors.InvalidState("cannot join meeting in status %q", meeting.Status)
	}

	// Повторный join того же пользователя - no-op без системного сообщения
	if meeting.HasParticipant(userID) {
		return meeting, nil
	}

	// Проверка вместимости под мьютексом встречи:
	// конкурирующие join-ы на границе лимита решаются по одному
	if meeting.MaxParticipants != nil && len(meeting.Participants) >= *meeting.MaxParticipants {
		metrics.RecordLifecycleTransition("join", "rejected")
		return nil, apperrors.Capacity("meeting is full (%d participants)", *meeting.MaxParticipants)
	}

	meeting.Participants = append(meeting.Participants, userID)

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}
	metrics.RecordLifecycleTransition("join", "ok")

	if _, err := s.messages.AppendSystem(ctx, meetingID, fmt.Sprintf("%s joined", s.displayName(ctx, userID))); err != nil {
		s.log.Warn("Failed to append system message", "error", err, "meeting_id", meetingID)
	}

	s.audit(ctx, &userID, domain.ActorRoleUser, &meeting.ID, &meeting.ClubID,
		domain.EventTypeMeetingJoined, nil)

	s.notifier.Publish(MeetingRoom(meetingID), Event{
		Name:      EventJoinMeeting,
		MeetingID: &meeting.ID,
		ClubID:    &meeting.ClubID,
		Payload:   meeting,
	})

	return meeting, nil
}

func (s *meetingService) Leave(ctx context.Context, meetingID, userID uuid.UUID) (*domain.Meeting, error) {
	lock := s.locks.Get(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	// Leave не участника - no-op, не ошибка
	if !meeting.HasParticipant(userID) {
		return meeting, nil
	}

	remaining := make([]uuid.UUID, 0, len(meeting.Participants)-1)
	for _, id := range meeting.Participants {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	meeting.Participants = remaining

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, err
	}
	metrics.RecordLifecycleTransition("leave", "ok")

	if _, err := s.messages.AppendSystem(ctx, meetingID, fmt.Sprintf("%s left", s.displayName(ctx, userID))); err != nil {
		s.log.Warn("Failed to append system message", "error", err, "meeting_id", meetingID)
	}

	s.audit(ctx, &userID, domain.ActorRoleUser, &meeting.ID, &meeting.ClubID,
		domain.EventTypeMeetingLeft, nil)

	s.notifier.Publish(MeetingRoom(meetingID), Event{
		Name:      EventLeaveMeeting,
		MeetingID: &meeting.ID,
		ClubID:    &meeting.ClubID,
		Payload:   meeting,
	})

	return meeting, nil
}

func (s *meetingService) requireAdmin(ctx context.Context, clubID, userID uuid.UUID) error {
	isAdmin, err := s.clubs.IsAdmin(ctx, clubID, userID)
	if err != nil {
		return apperrors.Authorization("user is not a member of this club")
	}
	if !isAdmin {
		return apperrors.Authorization("only club admins can manage meetings")
	}
	return nil
}

func (s *meetingService) displayName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return userID.String()
	}
	return user.DisplayName
}

func (s *meetingService) publishMeetingUpdate(meeting *domain.Meeting) {
	event := Event{
		Name:      EventMeetingUpdate,
		MeetingID: &meeting.ID,
		ClubID:    &meeting.ClubID,
		Payload:   meeting,
	}
	s.notifier.Publish(MeetingRoom(meeting.ID), event)
	s.notifier.Publish(ClubRoom(meeting.ClubID), event)
}

func (s *meetingService) audit(ctx context.Context, actorID *uuid.UUID, role string, meetingID, clubID *uuid.UUID, eventType string, payload map[string]interface{}) {
	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:   time.Now(),
		ActorUserID: actorID,
		ActorRole:   role,
		MeetingID:   meetingID,
		ClubID:      clubID,
		EventType:   eventType,
		Payload:     payload,
	}); err != nil {
		s.log.Warn("Failed to write audit log", "error", err, "event_type", eventType)
	}
}
