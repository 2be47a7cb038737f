package store

import (
	"context"
	"sync"
	"time"

	"pulsar/internal/domain"
)

// MemoryStore keeps jobs, the pending queue, and the history list in process
// memory behind a single mutex. It is the default driver for development and
// the reference implementation for the store contract.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*domain.Job
	pending []string // oldest first
	history []string // newest first, bounded by domain.HistoryCapacity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*domain.Job)}
}

func (s *MemoryStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrDuplicateID
	}
	stored := *job
	stored.Status = domain.JobStatusQueued
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.jobs[stored.ID] = &stored
	s.pending = append(s.pending, stored.ID)
	*job = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) ListQueued(_ context.Context) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Job, 0, len(s.pending))
	for _, id := range s.pending {
		if job, ok := s.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *MemoryStore) QueueLength(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), nil
}

func (s *MemoryStore) ClaimNext(_ context.Context) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil, domain.ErrNotFound
	}
	id := s.pending[0]
	s.pending = s.pending[1:]
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	job.Status = domain.JobStatusProcessing
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) Complete(_ context.Context, id string, tracks []domain.Track) error {
	return s.finish(id, func(job *domain.Job) {
		job.Status = domain.JobStatusCompleted
		job.Tracks = append([]domain.Track(nil), tracks...)
	})
}

func (s *MemoryStore) Fail(_ context.Context, id string, reason string) error {
	return s.finish(id, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.Error = reason
	})
}

// finish applies a terminal transition. Jobs may be completed or failed from
// queued (admin/test-injected work that skips claiming) or processing, never
// from a terminal state.
func (s *MemoryStore) finish(id string, apply func(*domain.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return domain.ErrInvalidTransition
	}
	if job.Status == domain.JobStatusQueued {
		s.removePending(id)
	}
	apply(job)
	now := time.Now().UTC()
	job.CompletedAt = &now

	s.history = append([]string{id}, s.history...)
	if len(s.history) > domain.HistoryCapacity {
		s.history = s.history[:domain.HistoryCapacity]
	}
	return nil
}

func (s *MemoryStore) removePending(id string) {
	for i, pending := range s.pending {
		if pending == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func (s *MemoryStore) History(_ context.Context, limit int) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]domain.Job, 0, limit)
	for _, id := range s.history[:limit] {
		if job, ok := s.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *MemoryStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.Stats{
		QueueLength:   len(s.pending),
		HistoryLength: len(s.history),
	}
	window := s.history
	if len(window) > domain.StatsWindow {
		window = window[:domain.StatsWindow]
	}
	for _, id := range window {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		switch job.Status {
		case domain.JobStatusCompleted:
			stats.RecentCompleted++
		case domain.JobStatusFailed:
			stats.RecentFailed++
		}
	}
	return stats, nil
}

var _ domain.JobStore = (*MemoryStore)(nil)
