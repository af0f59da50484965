package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"club_meetings/internal/service"
	"club_meetings/pkg/logger"
)

type ClubHandler struct {
	clubService service.ClubService
	log         logger.Logger
}

func NewClubHandler(clubService service.ClubService, log logger.Logger) *ClubHandler {
	return &ClubHandler{
		clubService: clubService,
		log:         log,
	}
}

type CreateClubRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

func (h *ClubHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	club, err := h.clubService.Create(c.Request.Context(), userID.(uuid.UUID), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, club)
}

func (h *ClubHandler) GetByID(c *gin.Context) {
	clubID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid club ID"})
		return
	}

	club, err := h.clubService.GetByID(c.Request.Context(), clubID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, club)
}

type JoinClubRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

func (h *ClubHandler) Join(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req JoinClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	club, err := h.clubService.JoinByCode(c.Request.Context(), userID.(uuid.UUID), req.JoinCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, club)
}
