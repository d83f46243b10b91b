package store

import (
	"context"
	"sync"

	"scout.app/research/internal/model"
)

// memoryRegistry is the default in-process registry. Each record is owned
// and mutated by exactly one orchestrator goroutine, so a single mutex per
// store is enough for safe concurrent insert/read/update across jobs.
type memoryRegistry struct {
	statuses *memoryStatusStore
	results  *memoryResultStore
}

// NewMemory creates an in-memory registry. Records live until the process
// exits.
func NewMemory() Registry {
	return &memoryRegistry{
		statuses: &memoryStatusStore{records: make(map[string]model.JobStatus)},
		results:  &memoryResultStore{records: make(map[string]model.JobResult)},
	}
}

func (r *memoryRegistry) Statuses() StatusStore { return r.statuses }
func (r *memoryRegistry) Results() ResultStore  { return r.results }

type memoryStatusStore struct {
	mu      sync.RWMutex
	records map[string]model.JobStatus
	order   []string
}

func (s *memoryStatusStore) Insert(_ context.Context, status *model.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[status.JobID]; !exists {
		s.order = append(s.order, status.JobID)
	}
	s.records[status.JobID] = *status
	return nil
}

func (s *memoryStatusStore) Get(_ context.Context, jobID string) (*model.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *memoryStatusStore) Update(_ context.Context, status *model.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[status.JobID]; !ok {
		return ErrNotFound
	}
	s.records[status.JobID] = *status
	return nil
}

func (s *memoryStatusStore) List(_ context.Context) ([]model.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]model.JobStatus, 0, len(s.order))
	for _, jobID := range s.order {
		snapshot = append(snapshot, s.records[jobID])
	}
	return snapshot, nil
}

type memoryResultStore struct {
	mu      sync.RWMutex
	records map[string]model.JobResult
}

func (s *memoryResultStore) Write(_ context.Context, result *model.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[result.JobID] = *result
	return nil
}

func (s *memoryResultStore) Get(_ context.Context, jobID string) (*model.JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}
