package handlers

import (
	"net/http"
	"time"

	apperrors "houseofstone-client/internal/errors"
	"houseofstone-client/internal/notify"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	queue *notify.Queue
}

func NewNotificationHandler(queue *notify.Queue) *NotificationHandler {
	return &NotificationHandler{queue: queue}
}

// PushRequest mirrors a toast: duration is in milliseconds, zero uses the default.
type PushRequest struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message" binding:"required"`
	Duration int64  `json:"duration" binding:"gte=0"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.queue.List()})
}

func (h *NotificationHandler) Push(c *gin.Context) {
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	id := h.queue.Push(notify.ParseSeverity(req.Type), req.Title, req.Message, time.Duration(req.Duration)*time.Millisecond)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if !h.queue.Dismiss(c.Param("id")) {
		_ = c.Error(apperrors.NewAppError("notification not found", apperrors.MsgNotFound, apperrors.ErrCodeNotFound, http.StatusNotFound, nil))
		return
	}
	c.Status(http.StatusNoContent)
}
