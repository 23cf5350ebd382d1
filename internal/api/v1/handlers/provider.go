package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watchme-asr/internal/api/middleware"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/api/v1/services"
)

// ProviderHandler handles provider-related API endpoints
type ProviderHandler struct {
	service services.ProviderService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(service services.ProviderService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// List handles GET /api/v1/providers
func (h *ProviderHandler) List(c *gin.Context) {
	response, err := h.service.ListProviders(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// SetSelection handles PUT /api/v1/providers/selection
func (h *ProviderHandler) SetSelection(c *gin.Context) {
	var req dto.SelectionRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.SetSelection(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetStats handles GET /api/v1/providers/:name/stats
func (h *ProviderHandler) GetStats(c *gin.Context) {
	response, err := h.service.GetProviderStats(c.Request.Context(), c.Param("name"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Health handles GET /health. A degraded service still answers 200 so
// load balancers keep routing batch calls that name a working provider.
func (h *ProviderHandler) Health(c *gin.Context) {
	response, err := h.service.Health(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
