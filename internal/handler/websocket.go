package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"club_meetings/internal/repository"
	"club_meetings/internal/service"
	"club_meetings/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 25 * time.Second
)

type WebSocketHandler struct {
	notifier       service.Notifier
	meetingService service.MeetingService
	presenceRepo   repository.PresenceRepository
	log            logger.Logger
}

func NewWebSocketHandler(notifier service.Notifier, meetingService service.MeetingService, presenceRepo repository.PresenceRepository, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		notifier:       notifier,
		meetingService: meetingService,
		presenceRepo:   presenceRepo,
		log:            log,
	}
}

// HandleMeeting привязывает соединение к комнатам встречи и клуба.
// Канал только исходящий: команды идут через REST, сюда приходят
// события lifecycle и сообщений. Отписка при разрыве обязательна.
func (h *WebSocketHandler) HandleMeeting(c *gin.Context) {
	userID, _ := c.Get("user_id")

	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	meeting, err := h.meetingService.GetByID(c.Request.Context(), meetingID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	// Уникальный ID клиента: один пользователь может держать
	// несколько вкладок на одной встрече
	clientID := userID.(uuid.UUID).String() + ":" + uuid.New().String()

	meetingRoom := service.MeetingRoom(meetingID)
	clubRoom := service.ClubRoom(meeting.ClubID)

	meetingEvents := h.notifier.Subscribe(meetingRoom, clientID)
	clubEvents := h.notifier.Subscribe(clubRoom, clientID)
	defer h.notifier.Unsubscribe(meetingRoom, clientID)
	defer h.notifier.Unsubscribe(clubRoom, clientID)

	if err := h.presenceRepo.Heartbeat(c.Request.Context(), meetingID, userID.(uuid.UUID)); err != nil {
		h.log.Warn("Failed to record presence on connect", "error", err)
	}

	done := make(chan struct{})

	// Читаем только для обнаружения разрыва и обновления presence
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if err := h.presenceRepo.Heartbeat(c.Request.Context(), meetingID, userID.(uuid.UUID)); err != nil {
				h.log.Warn("Failed to refresh presence", "error", err)
			}
		}
	}()

	pingTicker := time.NewTicker(wsPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case event, ok := <-meetingEvents:
			if !ok {
				return
			}
			if err := h.writeEvent(conn, event); err != nil {
				return
			}
		case event, ok := <-clubEvents:
			if !ok {
				return
			}
			if err := h.writeEvent(conn, event); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WebSocketHandler) writeEvent(conn *websocket.Conn, event service.Event) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(event); err != nil {
		h.log.Debug("Failed to write event", "error", err)
		return err
	}
	return nil
}
