package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"club_meetings/internal/domain"
	apperrors "club_meetings/pkg/errors"
	"club_meetings/pkg/logger"
)

func newMessageServiceForTest() (MessageService, *MockMessageRepository, *MockMeetingRepository) {
	messageRepo := new(MockMessageRepository)
	meetingRepo := new(MockMeetingRepository)
	log := logger.New("error")
	svc := NewMessageService(messageRepo, meetingRepo, NewNotifier(log), NewMeetingLocks(), log)
	return svc, messageRepo, meetingRepo
}

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()
	meetingID := uuid.New()
	senderID := uuid.New()
	started := time.Now()

	t.Run("сообщение сохраняется в идущей встрече", func(t *testing.T) {
		svc, messageRepo, meetingRepo := newMessageServiceForTest()
		meeting := &domain.Meeting{ID: meetingID, Status: domain.MeetingStatusActive, StartedAt: &started}

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(meeting, nil)
		messageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MeetingMessage")).Return(nil)

		message, err := svc.Send(ctx, meetingID, senderID, "  привет всем  ")

		require.NoError(t, err)
		assert.Equal(t, "привет всем", message.Content)
		assert.Equal(t, domain.MessageTypeText, message.MessageType)
		require.NotNil(t, message.SenderID)
		assert.Equal(t, senderID, *message.SenderID)
		messageRepo.AssertExpectations(t)
	})

	t.Run("ошибка: пустое сообщение не сохраняется", func(t *testing.T) {
		svc, messageRepo, _ := newMessageServiceForTest()

		_, err := svc.Send(ctx, meetingID, senderID, "   ")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ошибка: сообщение в не идущую встречу", func(t *testing.T) {
		svc, messageRepo, meetingRepo := newMessageServiceForTest()
		meeting := &domain.Meeting{ID: meetingID, Status: domain.MeetingStatusScheduled}

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(meeting, nil)

		_, err := svc.Send(ctx, meetingID, senderID, "рано")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ошибка: сообщение в завершенную встречу", func(t *testing.T) {
		svc, _, meetingRepo := newMessageServiceForTest()
		ended := time.Now()
		meeting := &domain.Meeting{ID: meetingID, Status: domain.MeetingStatusEnded, EndedAt: &ended}

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(meeting, nil)

		_, err := svc.Send(ctx, meetingID, senderID, "поздно")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("ошибка: встреча не найдена", func(t *testing.T) {
		svc, _, meetingRepo := newMessageServiceForTest()

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(nil, apperrors.NotFound("meeting not found"))

		_, err := svc.Send(ctx, meetingID, senderID, "привет")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestMessageService_AppendSystem(t *testing.T) {
	ctx := context.Background()
	meetingID := uuid.New()

	t.Run("системное сообщение без отправителя", func(t *testing.T) {
		svc, messageRepo, _ := newMessageServiceForTest()

		messageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MeetingMessage")).Return(nil)

		message, err := svc.AppendSystem(ctx, meetingID, "Meeting ended")

		require.NoError(t, err)
		assert.Equal(t, domain.MessageTypeSystem, message.MessageType)
		assert.Nil(t, message.SenderID)
		assert.Equal(t, "Meeting ended", message.Content)
	})

	t.Run("ошибка: пустое системное сообщение", func(t *testing.T) {
		svc, _, _ := newMessageServiceForTest()

		_, err := svc.AppendSystem(ctx, meetingID, "")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestMessageService_ListSince(t *testing.T) {
	ctx := context.Background()
	meetingID := uuid.New()

	t.Run("отдает сообщения после курсора", func(t *testing.T) {
		svc, messageRepo, meetingRepo := newMessageServiceForTest()
		meeting := &domain.Meeting{ID: meetingID, Status: domain.MeetingStatusActive}
		expected := []*domain.MeetingMessage{
			{ID: 11, MeetingID: meetingID, Content: "a"},
			{ID: 12, MeetingID: meetingID, Content: "b"},
		}

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(meeting, nil)
		messageRepo.On("ListSince", mock.Anything, meetingID, int64(10), 100).Return(expected, nil)

		messages, err := svc.ListSince(ctx, meetingID, 10, 0)

		require.NoError(t, err)
		require.Len(t, messages, 2)
		// Порядок стабилен: id в выдаче строго возрастают
		assert.Less(t, messages[0].ID, messages[1].ID)
	})

	t.Run("лимит выше потолка урезается до дефолта", func(t *testing.T) {
		svc, messageRepo, meetingRepo := newMessageServiceForTest()
		meeting := &domain.Meeting{ID: meetingID, Status: domain.MeetingStatusActive}

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(meeting, nil)
		messageRepo.On("ListSince", mock.Anything, meetingID, int64(0), 100).Return([]*domain.MeetingMessage{}, nil)

		_, err := svc.ListSince(ctx, meetingID, 0, 10000)

		require.NoError(t, err)
		messageRepo.AssertExpectations(t)
	})

	t.Run("ошибка: встреча не найдена, а не пустой список", func(t *testing.T) {
		svc, messageRepo, meetingRepo := newMessageServiceForTest()

		meetingRepo.On("GetByID", mock.Anything, meetingID).Return(nil, apperrors.NotFound("meeting not found"))

		_, err := svc.ListSince(ctx, meetingID, 0, 50)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		messageRepo.AssertNotCalled(t, "ListSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
