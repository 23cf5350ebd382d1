package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watchme-asr/internal/api/middleware"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/api/v1/services"
)

// BatchHandler handles the batch invocation surface
type BatchHandler struct {
	service services.BatchService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(service services.BatchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// Run handles POST /fetch-and-transcribe and POST /api/v1/batches.
// The batch runs synchronously; per-item failures are reported in the summary
// with HTTP 200, invalid selectors are 422 and aborted batches 503.
func (h *BatchHandler) Run(c *gin.Context) {
	var req dto.BatchRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.RunBatch(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("X-Run-ID", response.RunID)
	c.JSON(http.StatusOK, response)
}
