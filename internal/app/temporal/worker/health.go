package worker

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus represents the worker health status
type HealthStatus struct {
	mu sync.RWMutex

	WorkerID  string           `json:"worker_id"`
	TaskQueue string           `json:"task_queue"`
	Status    string           `json:"status"`
	StartedAt time.Time        `json:"started_at"`
	Temporal  ConnectionStatus `json:"temporal"`
	Schedule  string           `json:"schedule,omitempty"`
}

// ConnectionStatus represents a connection status
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Endpoint  string `json:"endpoint"`
	Error     string `json:"error,omitempty"`
}

// SetTemporal records the Temporal connection state
func (s *HealthStatus) SetTemporal(connected bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Temporal.Connected = connected
	s.Temporal.Error = ""
	if err != nil {
		s.Temporal.Error = err.Error()
	}
	if connected {
		s.Status = "running"
	} else {
		s.Status = "degraded"
	}
}

func (s *HealthStatus) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Temporal.Connected
}

func (s *HealthStatus) snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"worker_id":  s.WorkerID,
		"task_queue": s.TaskQueue,
		"status":     s.Status,
		"uptime":     time.Since(s.StartedAt).Round(time.Second).String(),
		"started_at": s.StartedAt,
		"temporal":   s.Temporal,
		"schedule":   s.Schedule,
	}
}

// healthHandler serves /health, /live and /ready
func healthHandler(status *HealthStatus) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status.snapshot())
	})

	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if status.ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("READY"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT READY"))
	})

	return mux
}
