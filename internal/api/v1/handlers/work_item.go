package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watchme-asr/internal/api/middleware"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/api/v1/services"
)

// WorkItemHandler exposes current work item statuses
type WorkItemHandler struct {
	service services.WorkItemService
}

// NewWorkItemHandler creates a new work item handler
func NewWorkItemHandler(service services.WorkItemService) *WorkItemHandler {
	return &WorkItemHandler{service: service}
}

// List handles GET /api/v1/work-items?device_id=&date=
func (h *WorkItemHandler) List(c *gin.Context) {
	var query dto.WorkItemQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.ListWorkItems(c.Request.Context(), query)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
