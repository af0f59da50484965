package service

import (
	"club_meetings/internal/config"
	"club_meetings/internal/repository"
	"club_meetings/pkg/logger"
)

type Services struct {
	Auth      AuthService
	Club      ClubService
	Meeting   MeetingService
	Message   MessageService
	Notifier  Notifier
	RateLimit RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	notifier := NewNotifier(log)

	// Один набор мьютексов на встречу делят lifecycle-контроллер
	// и канал сообщений: их проверки статуса видят одно состояние
	locks := NewMeetingLocks()

	messages := NewMessageService(repos.Message, repos.Meeting, notifier, locks, log)
	clubs := NewClubService(repos.Club, repos.Audit, log)

	return &Services{
		Auth:      NewAuthService(repos.User, cfg.JWT, log),
		Club:      clubs,
		Meeting:   NewMeetingService(repos.Meeting, repos.Club, clubs, repos.User, repos.Audit, messages, notifier, locks, log),
		Message:   messages,
		Notifier:  notifier,
		RateLimit: NewRateLimitService(repos.RateLimit, log),
	}
}
