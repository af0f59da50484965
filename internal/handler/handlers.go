package handler

import (
	"github.com/gin-gonic/gin"

	"club_meetings/internal/config"
	"club_meetings/internal/repository"
	"club_meetings/internal/service"
	apperrors "club_meetings/pkg/errors"
	"club_meetings/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Club      *ClubHandler
	Meeting   *MeetingHandler
	Message   *MessageHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(cfg),
		Auth:      NewAuthHandler(services.Auth, log),
		Club:      NewClubHandler(services.Club, log),
		Meeting:   NewMeetingHandler(services.Meeting, repos.Presence, log),
		Message:   NewMessageHandler(services.Message, log),
		WebSocket: NewWebSocketHandler(services.Notifier, services.Meeting, repos.Presence, log),
	}
}

// respondError переводит категорию ошибки в HTTP статус
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
}
