package routes

import (
	"github.com/gin-gonic/gin"

	"watchme-asr/internal/api/v1/handlers"
	"watchme-asr/internal/api/v1/services"
)

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	BatchService         services.BatchService
	TranscriptionService services.TranscriptionService
	ProviderService      services.ProviderService
	WorkItemService      services.WorkItemService
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	batchHandler := handlers.NewBatchHandler(container.BatchService)
	router.POST("/batches", batchHandler.Run)

	if container.TranscriptionService != nil {
		transcriptionHandler := handlers.NewTranscriptionHandler(container.TranscriptionService)
		router.POST("/transcribe", transcriptionHandler.Transcribe)
	}

	providerHandler := handlers.NewProviderHandler(container.ProviderService)
	providers := router.Group("/providers")
	{
		providers.GET("", providerHandler.List)
		providers.PUT("/selection", providerHandler.SetSelection)
		providers.GET("/:name/stats", providerHandler.GetStats)
	}

	if container.WorkItemService != nil {
		workItemHandler := handlers.NewWorkItemHandler(container.WorkItemService)
		router.GET("/work-items", workItemHandler.List)
	}
}

// RegisterLegacyRoutes registers the unversioned endpoints older callers use
func RegisterLegacyRoutes(router gin.IRouter, container *ServiceContainer) {
	batchHandler := handlers.NewBatchHandler(container.BatchService)
	router.POST("/fetch-and-transcribe", batchHandler.Run)

	providerHandler := handlers.NewProviderHandler(container.ProviderService)
	router.GET("/health", providerHandler.Health)
}
