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

// MessageService - канал сообщений встречи. Лог append-only,
// единственный писатель записей сообщений в хранилище.
type MessageService interface {
	Send(ctx context.Context, meetingID, senderID uuid.UUID, content string) (*domain.MeetingMessage, error)
	ListSince(ctx context.Context, meetingID uuid.UUID, afterID int64, limit int) ([]*domain.MeetingMessage, error)
	// AppendSystem вызывается только lifecycle-контроллером,
	// уже держащим мьютекс встречи - здесь он не берется повторно.
	AppendSystem(ctx context.Context, meetingID uuid.UUID, content string) (*domain.MeetingMessage, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	meetingRepo repository.MeetingRepository
	notifier    Notifier
	locks       *MeetingLocks
	log         logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	meetingRepo repository.MeetingRepository,
	notifier Notifier,
	locks *MeetingLocks,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		meetingRepo: meetingRepo,
		notifier:    notifier,
		locks:       locks,
		log:         log,
	}
}

func (s *messageService) Send(ctx context.Context, meetingID, senderID uuid.UUID, content string) (*domain.MeetingMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("message content is empty")
	}

	lock := s.locks.Get(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	// Писать можно только в идущую встречу
	if meeting.Status != domain.MeetingStatusActive {
		return nil, apperrors.InvalidState("cannot send message to meeting in status %q", meeting.Status)
	}

	message := &domain.MeetingMessage{
		MeetingID:   meetingID,
		SenderID:    &senderID,
		MessageType: domain.MessageTypeText,
		Content:     content,
		CreatedAt:   time.Now(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.notifier.Publish(MeetingRoom(meetingID), Event{
		Name:      EventReceiveMessage,
		MeetingID: &meetingID,
		ClubID:    &meeting.ClubID,
		Payload:   message,
	})

	return message, nil
}

func (s *messageService) ListSince(ctx context.Context, meetingID uuid.UUID, afterID int64, limit int) ([]*domain.MeetingMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	// Проверяем, что встреча существует - иначе 404, а не пустой список
	if _, err := s.meetingRepo.GetByID(ctx, meetingID); err != nil {
		return nil, err
	}

	return s.messageRepo.ListSince(ctx, meetingID, afterID, limit)
}

func (s *messageService) AppendSystem(ctx context.Context, meetingID uuid.UUID, content string) (*domain.MeetingMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("system message content is empty")
	}

	message := &domain.MeetingMessage{
		MeetingID:   meetingID,
		SenderID:    nil,
		MessageType: domain.MessageTypeSystem,
		Content:     content,
		CreatedAt:   time.Now(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.notifier.Publish(MeetingRoom(meetingID), Event{
		Name:      EventReceiveMessage,
		MeetingID: &meetingID,
		Payload:   message,
	})

	return message, nil
}
