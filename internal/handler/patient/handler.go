package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qtrack/clinic-api/internal/handler"
	"github.com/qtrack/clinic-api/internal/service/directory"
)

type Handler struct {
	service *directory.Service
}

func NewHandler(service *directory.Service) *Handler {
	return &Handler{service: service}
}

// List returns the deduplicated patient directory, most recent visitor
// first.
func (h *Handler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to load patient directory"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

// Search filters the directory by name or phone substring. No match is
// an empty list.
func (h *Handler) Search(c *gin.Context) {
	records, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to search patient directory"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}
