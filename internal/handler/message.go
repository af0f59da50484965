package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"club_meetings/internal/domain"
	"club_meetings/internal/service"
	"club_meetings/pkg/logger"
)

type MessageHandler struct {
	messageService service.MessageService
	log            logger.Logger
}

func NewMessageHandler(messageService service.MessageService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		log:            log,
	}
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, _ := c.Get("user_id")
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messageService.Send(c.Request.Context(), meetingID, userID.(uuid.UUID), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// List возвращает сообщения встречи после курсора ?after=<id>
func (h *MessageHandler) List(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	afterID, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after cursor"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := h.messageService.ListSince(c.Request.Context(), meetingID, afterID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	if messages == nil {
		messages = []*domain.MeetingMessage{}
	}

	c.JSON(http.StatusOK, messages)
}
