package prescription

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/handler"
	"github.com/qtrack/clinic-api/internal/middleware"
	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/prescription"
	apperrors "github.com/qtrack/clinic-api/pkg/errors"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Create(c.Request.Context(), claims, &req)
	if err != nil {
		if appErr, ok := apperrors.AsApp(err); ok {
			c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create prescription"))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

// Draft pre-fills a prescription from an appointment without saving it.
func (h *Handler) Draft(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Query("appointment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	draft, err := h.service.Draft(c.Request.Context(), appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to build prescription draft"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(draft))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription ID"))
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("prescription not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to fetch prescription"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// List scopes by role: a doctor sees only their own prescriptions.
func (h *Handler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	if claims != nil && claims.Role == model.StaffRoleDoctor {
		prescriptions, err := h.service.ListForDoctor(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list prescriptions"))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(prescriptions))
		return
	}

	filters := &model.PrescriptionFilters{
		Status: model.PrescriptionStatus(c.Query("status")),
	}
	prescriptions, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list prescriptions"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(prescriptions))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription ID"))
		return
	}

	var req model.UpdatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("prescription not found"))
			return
		}
		if appErr, ok := apperrors.AsApp(err); ok {
			c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to update prescription"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// Delete requires the caller to confirm; deletion is permanent.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription ID"))
		return
	}

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("deletion is permanent; pass confirm=true to proceed"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("prescription not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to delete prescription"))
		return
	}

	c.JSON(http.StatusOK, handler.NewNoticeResponse("prescription deleted"))
}
