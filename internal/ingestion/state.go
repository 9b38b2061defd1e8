// Package ingestion implements the Ingestion service: single-writer
// ingestion state tracking, the load-split-write pipeline, and the
// upload/trigger/status/documents/collection HTTP surface.
package ingestion

import (
	"sync"
	"time"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

// StateService is the single-writer concurrency controller: at most one
// ingestion run may be in flight at a time, tracked behind a mutex so
// StartIngestion's check-and-set is atomic.
type StateService struct {
	mu        sync.Mutex
	isRunning bool
	status    domain.IngestionStatus
	lastDone  *time.Time
	lastRes   *domain.IngestionResult
	errors    []string
}

// NewStateService constructs a StateService in the idle state.
func NewStateService() *StateService {
	return &StateService{status: domain.StatusIdle}
}

// IsRunning reports whether an ingestion run is currently in flight.
func (s *StateService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// StartIngestion atomically transitions idle -> processing, returning
// false if a run is already in progress.
func (s *StateService) StartIngestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return false
	}
	s.isRunning = true
	s.status = domain.StatusProcessing
	s.errors = nil
	return true
}

// StopIngestion records the outcome of a finished run and transitions
// back to a terminal completed state. Always called, even on panic
// recovery in the pipeline, so the lock is never left held forever.
func (s *StateService) StopIngestion(result *domain.IngestionResult, errs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.isRunning = false
	s.lastDone = &now
	s.lastRes = result
	s.errors = errs
	if len(errs) == 0 {
		s.status = domain.StatusCompleted
	} else {
		s.status = domain.StatusCompletedWithErrors
	}
}

// GetStatus returns a snapshot of the current state. Never fails.
func (s *StateService) GetStatus() domain.IngestionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.IngestionState{
		IsRunning:       s.isRunning,
		Status:          s.status,
		LastCompletedAt: s.lastDone,
		Errors:          s.errors,
	}
	if s.lastRes != nil {
		state.DocumentsProcessed = s.lastRes.DocumentsProcessed
		state.ChunksAdded = s.lastRes.ChunksAdded
	}
	return state
}
