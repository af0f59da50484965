package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"club_meetings/internal/domain"
)

type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Meeting, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) ListByClub(ctx context.Context, clubID uuid.UUID, limit, offset int) ([]*domain.Meeting, error) {
	args := m.Called(ctx, clubID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

type MockClubRepository struct {
	mock.Mock
}

func (m *MockClubRepository) Create(ctx context.Context, club *domain.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}

func (m *MockClubRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Club, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Club), args.Error(1)
}

func (m *MockClubRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Club, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Club), args.Error(1)
}

func (m *MockClubRepository) AddMember(ctx context.Context, member *domain.ClubMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockClubRepository) GetMember(ctx context.Context, clubID, userID uuid.UUID) (*domain.ClubMember, error) {
	args := m.Called(ctx, clubID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClubMember), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CreateSession(ctx context.Context, session *domain.UserSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockUserRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSession), args.Error(1)
}

func (m *MockUserRepository) RevokeSession(ctx context.Context, sessionID uuid.UUID, reason string) error {
	args := m.Called(ctx, sessionID, reason)
	return args.Error(0)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.MeetingMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListSince(ctx context.Context, meetingID uuid.UUID, afterID int64, limit int) ([]*domain.MeetingMessage, error) {
	args := m.Called(ctx, meetingID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingMessage), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) CreateLog(ctx context.Context, entry *domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockMessageService - для тестов lifecycle-переходов, где сам
// канал сообщений не проверяется
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, meetingID, senderID uuid.UUID, content string) (*domain.MeetingMessage, error) {
	args := m.Called(ctx, meetingID, senderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingMessage), args.Error(1)
}

func (m *MockMessageService) ListSince(ctx context.Context, meetingID uuid.UUID, afterID int64, limit int) ([]*domain.MeetingMessage, error) {
	args := m.Called(ctx, meetingID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingMessage), args.Error(1)
}

func (m *MockMessageService) AppendSystem(ctx context.Context, meetingID uuid.UUID, content string) (*domain.MeetingMessage, error) {
	args := m.Called(ctx, meetingID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingMessage), args.Error(1)
}
