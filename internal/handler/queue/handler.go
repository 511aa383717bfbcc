package queue

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/handler"
	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/queue"
	"github.com/qtrack/clinic-api/pkg/messaging"
	"github.com/qtrack/clinic-api/pkg/metrics"
)

type Handler struct {
	service *queue.Service
	broker  messaging.Broker
	metrics *metrics.Metrics
}

func NewHandler(service *queue.Service, broker messaging.Broker, m *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		broker:  broker,
		metrics: m,
	}
}

// GenerateToken moves a scheduled appointment into the day's queue.
func (h *Handler) GenerateToken(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.GenerateToken(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
		case errors.Is(err, queue.ErrInvalidTransition):
			c.JSON(http.StatusConflict, handler.NewErrorResponse("token can only be generated for a scheduled appointment"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to generate token"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

// CallNext starts the consultation for the lowest waiting token. An
// empty queue or an already-active consultation is a notice, not a
// fault.
func (h *Handler) CallNext(c *gin.Context) {
	date := c.Query("date")
	if !model.ValidDate(date) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	var doctorID *uuid.UUID
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		doctorID = &id
	}

	apt, err := h.service.CallNext(c.Request.Context(), date, doctorID)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrNoneWaiting):
			c.JSON(http.StatusOK, handler.NewNoticeResponse("no patients are waiting"))
		case errors.Is(err, queue.ErrConsultationActive):
			c.JSON(http.StatusConflict, handler.NewErrorResponse("a consultation is already in progress"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to call next patient"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
		case errors.Is(err, queue.ErrInvalidTransition):
			c.JSON(http.StatusConflict, handler.NewErrorResponse("only an in-progress consultation can be completed"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to complete consultation"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
		case errors.Is(err, queue.ErrInvalidTransition):
			c.JSON(http.StatusConflict, handler.NewErrorResponse("appointment is already completed or cancelled"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to cancel appointment"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

// Snapshot returns the full queue state for a date.
func (h *Handler) Snapshot(c *gin.Context) {
	date := c.Query("date")
	if !model.ValidDate(date) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	var doctorID *uuid.UUID
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		doctorID = &id
	}

	snap, err := h.service.Snapshot(c.Request.Context(), date, doctorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to load queue"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(snap))
}

// Board is the unauthenticated waiting-room display: tokens only.
func (h *Handler) Board(c *gin.Context) {
	date := c.Query("date")
	if !model.ValidDate(date) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	board, err := h.service.Board(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to load display board"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(board))
}

// Stream pushes queue events for a date over server-sent events until
// the client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	date := c.Query("date")
	if !model.ValidDate(date) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	events, err := h.broker.Subscribe(c.Request.Context(), model.QueueChannel(date))
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to subscribe to queue events"))
		return
	}

	if h.metrics != nil {
		h.metrics.QueueViewers.Inc()
		defer h.metrics.QueueViewers.Dec()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("queue", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
