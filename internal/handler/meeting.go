package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"club_meetings/internal/domain"
	"club_meetings/internal/repository"
	"club_meetings/internal/service"
	"club_meetings/pkg/logger"
)

// Окно свежести heartbeat-а для списка присутствующих
const presenceWindow = 30 * time.Second

type MeetingHandler struct {
	meetingService service.MeetingService
	presenceRepo   repository.PresenceRepository
	log            logger.Logger
}

func NewMeetingHandler(meetingService service.MeetingService, presenceRepo repository.PresenceRepository, log logger.Logger) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
		presenceRepo:   presenceRepo,
		log:            log,
	}
}

type CreateMeetingRequest struct {
	Title           string     `json:"title" binding:"required"`
	Description     *string    `json:"description,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	MaxParticipants *int       `json:"max_participants,omitempty"`
	IsVoiceOnly     bool       `json:"is_voice_only"`
}

func (h *MeetingHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")
	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid club ID"})
		return
	}

	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meeting, err := h.meetingService.Create(c.Request.Context(), clubID, userID.(uuid.UUID), service.CreateMeetingInput{
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt,
		MaxParticipants: req.MaxParticipants,
		IsVoiceOnly:     req.IsVoiceOnly,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

func (h *MeetingHandler) ListByClub(c *gin.Context) {
	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid club ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	meetings, err := h.meetingService.ListByClub(c.Request.Context(), clubID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, meetings)
}

func (h *MeetingHandler) GetByID(c *gin.Context) {
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

	c.JSON(http.StatusOK, meeting)
}

func (h *MeetingHandler) Start(c *gin.Context) {
	h.transition(c, h.meetingService.Start)
}

func (h *MeetingHandler) End(c *gin.Context) {
	userID, _ := c.Get("user_id")
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	meeting, err := h.meetingService.End(c.Request.Context(), meetingID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	// Встреча закончилась - в presence не должно остаться никого,
	// не дожидаясь протухания heartbeat-ов
	if err := h.presenceRepo.Clear(c.Request.Context(), meetingID); err != nil {
		h.log.Warn("Failed to clear presence", "error", err, "meeting_id", meetingID)
	}

	c.JSON(http.StatusOK, meeting)
}

func (h *MeetingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.meetingService.Cancel)
}

func (h *MeetingHandler) Join(c *gin.Context) {
	h.transition(c, h.meetingService.Join)
}

func (h *MeetingHandler) Leave(c *gin.Context) {
	userID, _ := c.Get("user_id")
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	meeting, err := h.meetingService.Leave(c.Request.Context(), meetingID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	// Покинувший участник перестает числиться присутствующим сразу
	if err := h.presenceRepo.Remove(c.Request.Context(), meetingID, userID.(uuid.UUID)); err != nil {
		h.log.Warn("Failed to remove presence", "error", err, "meeting_id", meetingID)
	}

	c.JSON(http.StatusOK, meeting)
}

func (h *MeetingHandler) Heartbeat(c *gin.Context) {
	userID, _ := c.Get("user_id")
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	if err := h.presenceRepo.Heartbeat(c.Request.Context(), meetingID, userID.(uuid.UUID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MeetingHandler) GetPresence(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	online, err := h.presenceRepo.ActiveSince(c.Request.Context(), meetingID, presenceWindow)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"online": online})
}

func (h *MeetingHandler) transition(c *gin.Context, fn func(ctx context.Context, meetingID, userID uuid.UUID) (*domain.Meeting, error)) {
	userID, _ := c.Get("user_id")
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting ID"})
		return
	}

	meeting, err := fn(c.Request.Context(), meetingID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}
