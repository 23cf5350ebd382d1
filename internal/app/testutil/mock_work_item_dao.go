package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/repository"
)

var _ repository.WorkItemDAO = (*MockWorkItemDAO)(nil)

// MockWorkItemDAO is an in-memory repository.WorkItemDAO with per-method error injection
type MockWorkItemDAO struct {
	mu    sync.RWMutex
	items map[model.WorkItemKey]model.WorkItem

	// ErrorMap forces a method ("UpdateStatus", "ListPending", ...) to fail
	ErrorMap map[string]error

	updates []model.StatusUpdate
}

// NewMockWorkItemDAO creates an empty store
func NewMockWorkItemDAO() *MockWorkItemDAO {
	return &MockWorkItemDAO{
		items:    make(map[model.WorkItemKey]model.WorkItem),
		ErrorMap: make(map[string]error),
	}
}

// Seed inserts items as they are
func (m *MockWorkItemDAO) Seed(items ...model.WorkItem) *MockWorkItemDAO {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.Key] = item
	}
	return m
}

func (m *MockWorkItemDAO) fail(method string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ErrorMap[method]
}

// Close implements repository.WorkItemDAO
func (m *MockWorkItemDAO) Close() error {
	return m.fail("Close")
}

// ListPending implements repository.WorkItemDAO
func (m *MockWorkItemDAO) ListPending(ctx context.Context, deviceID, date string) ([]model.WorkItem, error) {
	if err := m.fail("ListPending"); err != nil {
		return nil, err
	}
	return m.filter(deviceID, date, func(s model.Status) bool { return s.RetryEligible() }), nil
}

// List implements repository.WorkItemDAO
func (m *MockWorkItemDAO) List(ctx context.Context, deviceID, date string) ([]model.WorkItem, error) {
	if err := m.fail("List"); err != nil {
		return nil, err
	}
	return m.filter(deviceID, date, func(model.Status) bool { return true }), nil
}

func (m *MockWorkItemDAO) filter(deviceID, date string, keep func(model.Status) bool) []model.WorkItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.WorkItem
	for key, item := range m.items {
		if key.DeviceID == deviceID && key.Date == date && keep(item.Status) {
			out = append(out, copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.TimeBlock < out[j].Key.TimeBlock })
	return out
}

// Get implements repository.WorkItemDAO
func (m *MockWorkItemDAO) Get(ctx context.Context, key model.WorkItemKey) (*model.WorkItem, error) {
	if err := m.fail("Get"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	c := copyItem(item)
	return &c, nil
}

// UpdateStatus implements repository.WorkItemDAO
func (m *MockWorkItemDAO) UpdateStatus(ctx context.Context, update model.StatusUpdate) error {
	if err := m.fail("UpdateStatus"); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	item, ok := m.items[update.Key]
	if !ok {
		item = model.WorkItem{Key: update.Key, CreatedAt: now}
	}
	item.Status = update.Status
	item.Transcription = nil
	if update.Transcription != nil {
		text := *update.Transcription
		item.Transcription = &text
	}
	item.Reason = update.Reason
	item.Provider = update.Provider
	item.Model = update.Model
	item.UpdatedAt = now
	m.items[update.Key] = item
	m.updates = append(m.updates, update)
	return nil
}

// EnsurePending implements repository.WorkItemDAO
func (m *MockWorkItemDAO) EnsurePending(ctx context.Context, key model.WorkItemKey) error {
	if err := m.fail("EnsurePending"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		now := time.Now().UTC()
		m.items[key] = model.WorkItem{Key: key, Status: model.StatusPending, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

// Updates returns every accepted status update in order
func (m *MockWorkItemDAO) Updates() []model.StatusUpdate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.StatusUpdate(nil), m.updates...)
}

// Snapshot returns all items keyed by key
func (m *MockWorkItemDAO) Snapshot() map[model.WorkItemKey]model.WorkItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.WorkItemKey]model.WorkItem, len(m.items))
	for key, item := range m.items {
		out[key] = copyItem(item)
	}
	return out
}

func copyItem(item model.WorkItem) model.WorkItem {
	if item.Transcription != nil {
		text := *item.Transcription
		item.Transcription = &text
	}
	return item
}
