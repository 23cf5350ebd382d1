package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchme-asr/internal/api/v1/dto"
	v1routes "watchme-asr/internal/api/v1/routes"
	"watchme-asr/internal/api/v1/services"
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/metrics"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/repository"
	"watchme-asr/internal/app/testutil"
)

type testStack struct {
	server  *Server
	store   *repository.CommonDB
	fetcher *testutil.ScriptedFetcher
	mock    *testutil.MockProvider
}

func newTestStack(t *testing.T, name string) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := testutil.NewMockProvider(name)
	testutil.RegisterMock(name, mock)
	registry := provider.NewRegistry(map[string]provider.ProviderConfig{
		name: {Enabled: true},
	}, provider.Selection{Provider: name}, nil)

	store := testutil.SetupTestStore(t)
	fetcher := testutil.NewScriptedFetcher()
	stats := provider.NewProviderMetrics()
	m := metrics.New()

	orch, err := batch.New(batch.Deps{
		Resolver: registry,
		Store:    store,
		Fetcher:  fetcher,
		Metrics:  m,
		Stats:    stats,
	}, batch.Options{Concurrency: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond})
	require.NoError(t, err)

	container := &v1routes.ServiceContainer{
		BatchService:         services.NewBatchService(orch, nil),
		TranscriptionService: services.NewTranscriptionService(registry, nil, stats, time.Second),
		ProviderService:      services.NewProviderService(registry, stats),
		WorkItemService:      services.NewWorkItemService(store),
	}
	srv := NewServer(DefaultConfig("127.0.0.1", "0", "test"), container, m.Handler(), nil)

	return &testStack{server: srv, store: store, fetcher: fetcher, mock: mock}
}

func (s *testStack) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestFetchAndTranscribe_QuotaSplit(t *testing.T) {
	stack := newTestStack(t, "server-quota-split")
	ctx := context.Background()
	testutil.SeedPending(t, stack.store, "D1", "2025-08-26", "09-00", "09-30")

	first := testutil.Key("D1", "2025-08-26", "09-00")
	second := testutil.Key("D1", "2025-08-26", "09-30")
	stack.fetcher.Put(first.StorageKey(), testutil.WAV(160)).Put(second.StorageKey(), testutil.WAV(160))
	stack.mock.On(first.StorageKey(), testutil.Reply{Text: "おはようございます"})
	stack.mock.On(second.StorageKey(), testutil.Reply{Err: testutil.QuotaError("server-quota-split")})

	rec := stack.post(t, "/fetch-and-transcribe", dto.BatchRequest{
		DeviceID: "D1", Date: "2025-08-26", TimeBlocks: []string{"09-00", "09-30"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

	var resp dto.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dto.BatchStatusPartial, resp.Status)
	assert.Equal(t, 2, resp.Summary.TotalFiles)
	assert.Equal(t, 1, resp.Summary.Completed)
	assert.Equal(t, 1, resp.Summary.QuotaExceeded)
	assert.Equal(t, []string{first.StorageKey()}, resp.ProcessedFiles)

	testutil.RequireStatus(t, stack.store, first, model.StatusCompleted, testutil.Text("おはようございます"))
	testutil.RequireStatus(t, stack.store, second, model.StatusQuotaExceeded, nil)

	// A second run only picks up the quota-exceeded item.
	stack.mock.On(second.StorageKey(), testutil.Reply{Text: "こんばんは"})
	rec = stack.post(t, "/api/v1/batches", dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dto.BatchStatusSuccess, resp.Status)
	assert.Equal(t, 1, resp.Summary.TotalFiles)
	assert.Equal(t, 1, stack.mock.Calls(first.StorageKey()))

	items, err := stack.store.List(ctx, "D1", "2025-08-26")
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, model.StatusCompleted, item.Status, item.Key.String())
	}
}

func TestFetchAndTranscribe_Errors(t *testing.T) {
	stack := newTestStack(t, "server-errors")

	rec := stack.post(t, "/fetch-and-transcribe", dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26", TimeBlocks: []string{"9:00"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = stack.post(t, "/fetch-and-transcribe", dto.BatchRequest{DeviceID: "D1", Date: "2025-08-26", Provider: "not-registered"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Zero(t, stack.mock.TotalCalls())
}

func TestServerEndpoints(t *testing.T) {
	stack := newTestStack(t, "server-endpoints")
	router := stack.server.Router()

	for _, path := range []string{"/", "/health", "/metrics", "/api/v1/providers"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestServerRunShutsDownOnCancel(t *testing.T) {
	stack := newTestStack(t, "server-run")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- stack.server.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
