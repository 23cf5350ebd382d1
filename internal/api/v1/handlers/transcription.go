package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"watchme-asr/internal/api/errors"
	"watchme-asr/internal/api/middleware"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/api/v1/services"
)

// TranscriptionHandler handles direct upload transcription
type TranscriptionHandler struct {
	service services.TranscriptionService
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(service services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{service: service}
}

// Transcribe handles POST /api/v1/transcribe with a multipart "file" field
func (h *TranscriptionHandler) Transcribe(c *gin.Context) {
	var query dto.TranscribeQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		middleware.HandleError(c, errors.NewBadRequestError("File name is required"))
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !lo.Contains(dto.AllowedUploadExtensions, ext) {
		middleware.HandleError(c, errors.NewBadRequestError(fmt.Sprintf(
			"Unsupported file format. Allowed: %s", strings.Join(dto.AllowedUploadExtensions, ", "))))
		return
	}
	if header.Size > dto.MaxUploadBytes {
		middleware.HandleError(c, errors.NewTooLargeError("File exceeds the 25MB limit"))
		return
	}

	audio, err := io.ReadAll(io.LimitReader(file, dto.MaxUploadBytes+1))
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("Failed to read uploaded file"))
		return
	}
	if len(audio) > dto.MaxUploadBytes {
		middleware.HandleError(c, errors.NewTooLargeError("File exceeds the 25MB limit"))
		return
	}

	response, err := h.service.Transcribe(c.Request.Context(), &dto.TranscribeUpload{
		FileName:        header.Filename,
		Audio:           audio,
		TranscribeQuery: query,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
