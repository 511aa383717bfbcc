package appointment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/handler"
	"github.com/qtrack/clinic-api/internal/middleware"
	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/appointment"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create appointment"))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to fetch appointment"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

// List scopes by role: a doctor sees their own appointments, the desk
// sees everything.
func (h *Handler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	date := c.Query("date")
	if date != "" && !model.ValidDate(date) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	if claims != nil && claims.Role == model.StaffRoleDoctor {
		appointments, err := h.service.ListForDoctor(c.Request.Context(), claims, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list appointments"))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
		return
	}

	filters := &model.AppointmentFilters{
		Date:   date,
		Status: model.AppointmentStatus(c.Query("status")),
	}
	if raw := c.Query("doctor_id"); raw != "" {
		doctorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		filters.DoctorID = &doctorID
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list appointments"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
		case errors.Is(err, repository.ErrInvalidTransition):
			c.JSON(http.StatusConflict, handler.NewErrorResponse("appointment is completed or cancelled and can no longer be edited"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to update appointment"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to delete appointment"))
		return
	}

	c.JSON(http.StatusOK, handler.NewNoticeResponse("appointment deleted"))
}
