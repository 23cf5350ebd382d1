package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apierrors "watchme-asr/internal/api/errors"
	"watchme-asr/internal/api/middleware"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/api/v1/routes"
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/testutil"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *testutil.MockServices) {
	gin.SetMode(gin.TestMode)
	ms := testutil.NewMockServices(t)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(zap.NewNop()))

	container := &routes.ServiceContainer{
		BatchService:         ms.BatchService,
		TranscriptionService: ms.TranscriptionService,
		ProviderService:      ms.ProviderService,
		WorkItemService:      ms.WorkItemService,
	}
	routes.RegisterLegacyRoutes(router, container)
	routes.RegisterRoutes(router.Group("/api/v1"), container)
	return router, ms
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func TestBatchHandler_Run(t *testing.T) {
	summary := &model.BatchSummary{
		RunID: "run-1", Provider: "azure", Model: "ja-JP",
		Total: 2, Completed: 1, QuotaExceeded: 1,
		Items: []model.ItemResult{
			{Key: testutil.Key("D1", "2025-08-26", "09-00"), Status: model.StatusCompleted, Attempts: 1},
			{Key: testutil.Key("D1", "2025-08-26", "09-30"), Status: model.StatusQuotaExceeded, Attempts: 1},
		},
	}

	tests := []struct {
		name           string
		path           string
		body           interface{}
		setupMocks     func(*testutil.MockServices)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name: "partial failure is still 200",
			path: "/fetch-and-transcribe",
			body: dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26", TimeBlocks: []string{"09-00", "09-30"}},
			setupMocks: func(ms *testutil.MockServices) {
				ms.BatchService.On("RunBatch", mock.Anything, mock.MatchedBy(func(req *dto.BatchRequest) bool {
					return req.DeviceID == "D1" && len(req.TimeBlocks) == 2
				})).Return(dto.ToBatchResponse(summary, false), nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, dto.BatchStatusPartial, body["status"])
				counts := body["summary"].(map[string]interface{})
				assert.Equal(t, float64(2), counts["total_files"])
				assert.Equal(t, float64(1), counts["pending_processed"])
				assert.Equal(t, float64(1), counts["errors"])
				assert.Equal(t, float64(1), counts["quota_exceeded"])
				assert.Equal(t, []interface{}{"files/D1/2025-08-26/09-00/audio.wav"}, body["processed_files"])
			},
		},
		{
			name: "legacy file paths on the versioned route",
			path: "/api/v1/batches",
			body: dto.BatchRequest{FilePaths: []string{"files/D1/2025-08-26/09-00/audio.wav"}},
			setupMocks: func(ms *testutil.MockServices) {
				ms.BatchService.On("RunBatch", mock.Anything, mock.Anything).
					Return(dto.ToBatchResponse(&model.BatchSummary{RunID: "run-2"}, false), nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, dto.BatchStatusSuccess, body["status"])
				assert.Equal(t, "no pending work items", body["message"])
			},
		},
		{
			name:           "malformed date",
			path:           "/fetch-and-transcribe",
			body:           map[string]interface{}{"device_id": "D1", "date": "26/08/2025"},
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
				details := body["details"].(map[string]interface{})
				assert.Contains(t, details, "date")
			},
		},
		{
			name:           "invalid JSON",
			path:           "/fetch-and-transcribe",
			body:           "{not json",
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "selector rejected by orchestrator",
			path: "/fetch-and-transcribe",
			body: dto.BatchRequest{DeviceID: "D1"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.BatchService.On("RunBatch", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: date missing", batch.ErrInvalidSelector))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "invalid_selector", body["code"])
			},
		},
		{
			name: "batch aborted",
			path: "/fetch-and-transcribe",
			body: dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.BatchService.On("RunBatch", mock.Anything, mock.Anything).
					Return(nil, &batch.OrchestratorError{Op: "select work items", Err: errors.New("db down")})
			},
			expectedStatus: http.StatusServiceUnavailable,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "batch_aborted", body["code"])
				assert.NotEmpty(t, body["request_id"])
			},
		},
		{
			name: "provider unavailable",
			path: "/fetch-and-transcribe",
			body: dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26", Provider: "azure"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.BatchService.On("RunBatch", mock.Anything, mock.Anything).
					Return(nil, &batch.OrchestratorError{Op: "resolve provider", Err: &provider.UnknownProviderError{Name: "azure", Reason: "missing credentials"}})
			},
			expectedStatus: http.StatusServiceUnavailable,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "provider_unavailable", body["code"])
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "missing credentials", details["reason"])
			},
		},
		{
			name: "unexpected error",
			path: "/fetch-and-transcribe",
			body: dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.BatchService.On("RunBatch", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, string(apierrors.KindInternal), body["kind"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, ms := setupTestRouter(t)
			tt.setupMocks(ms)

			rec, body := doJSON(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.validateBody != nil {
				tt.validateBody(t, body)
			}
		})
	}
}

func multipartRequest(t *testing.T, path, field, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := writer.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestTranscriptionHandler_Transcribe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ms := setupTestRouter(t)
		ms.TranscriptionService.On("Transcribe", mock.Anything, mock.MatchedBy(func(u *dto.TranscribeUpload) bool {
			return u.FileName == "clip.WAV" && string(u.Audio) == "RIFF" && u.Provider == "groq"
		})).Return(&dto.TranscribeResponse{Transcription: "こんにちは", Outcome: "success", WordCount: 5}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, multipartRequest(t, "/api/v1/transcribe?provider=groq", "file", "clip.WAV", []byte("RIFF")))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "こんにちは", body["transcription"])
		assert.Equal(t, float64(5), body["word_count"])
	})

	rejections := []struct {
		name     string
		fileName string
		status   int
	}{
		{"missing file", "", http.StatusBadRequest},
		{"unsupported extension", "notes.txt", http.StatusBadRequest},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter(t)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, "/api/v1/transcribe", "file", tt.fileName, []byte("data")))
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("oversized upload", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		rec := httptest.NewRecorder()
		big := make([]byte, dto.MaxUploadBytes+1)
		router.ServeHTTP(rec, multipartRequest(t, "/api/v1/transcribe", "file", "big.wav", big))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestProviderHandler(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		router, ms := setupTestRouter(t)
		ms.ProviderService.On("ListProviders", mock.Anything).Return(&dto.ProviderListResponse{
			Active:    provider.Selection{Provider: "groq", Model: "whisper-large-v3-turbo"},
			Providers: []provider.ProviderStatus{{Name: "groq", Registered: true, Enabled: true, Active: true}},
		}, nil)

		rec, body := doJSON(t, router, http.MethodGet, "/api/v1/providers", "")
		require.Equal(t, http.StatusOK, rec.Code)
		active := body["active"].(map[string]interface{})
		assert.Equal(t, "groq", active["provider"])
		assert.Len(t, body["providers"], 1)
	})

	t.Run("switch selection", func(t *testing.T) {
		router, ms := setupTestRouter(t)
		ms.ProviderService.On("SetSelection", mock.Anything, &dto.SelectionRequest{Provider: "azure"}).
			Return(&dto.SelectionResponse{
				Previous: provider.Selection{Provider: "groq"},
				Active:   provider.Selection{Provider: "azure", Model: "ja-JP"},
			}, nil)

		rec, body := doJSON(t, router, http.MethodPut, "/api/v1/providers/selection", dto.SelectionRequest{Provider: "azure"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "azure", body["active"].(map[string]interface{})["provider"])
	})

	t.Run("selection requires provider", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		rec, body := doJSON(t, router, http.MethodPut, "/api/v1/providers/selection", map[string]string{"model": "x"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "is required", body["details"].(map[string]interface{})["provider"])
	})

	t.Run("stats of unknown provider", func(t *testing.T) {
		router, ms := setupTestRouter(t)
		ms.ProviderService.On("GetProviderStats", mock.Anything, "nope").Return(nil, apierrors.NewNotFoundError("provider"))

		rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/providers/nope/stats", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("health", func(t *testing.T) {
		router, ms := setupTestRouter(t)
		ms.ProviderService.On("Health", mock.Anything).Return(&dto.HealthResponse{Status: "degraded"}, nil)

		rec, body := doJSON(t, router, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "degraded", body["status"])
	})
}

func TestWorkItemHandler_List(t *testing.T) {
	t.Run("lists items", func(t *testing.T) {
		router, ms := setupTestRouter(t)
		ms.WorkItemService.On("ListWorkItems", mock.Anything, dto.WorkItemQuery{DeviceID: "D1", Date: "2025-08-26"}).
			Return(&dto.WorkItemListResponse{
				Items:  []dto.WorkItemResponse{dto.ToWorkItemResponse(testutil.CompletedItem("D1", "2025-08-26", "09-00", "こんにちは"))},
				Counts: map[model.Status]int{model.StatusCompleted: 1},
			}, nil)

		rec, body := doJSON(t, router, http.MethodGet, "/api/v1/work-items?device_id=D1&date=2025-08-26", "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := body["items"].([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, "こんにちは", items[0].(map[string]interface{})["transcription"])
	})

	t.Run("requires device and date", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/work-items?device_id=D1", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
