package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pulsar/internal/domain"
)

const (
	queueKey   = "queue"
	historyKey = "history"
)

func jobKey(id string) string { return "job:" + id }

// RedisStore implements domain.JobStore on Redis: one JSON value per job, a
// pending list, and a history list trimmed to domain.HistoryCapacity. Claiming
// relies on RPOP being atomic, so concurrent workers pop distinct ids.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, job *domain.Job) error {
	job.Status = domain.JobStatusQueued
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	created, err := s.client.SetNX(ctx, jobKey(job.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis create %s: %w", job.ID, err)
	}
	if !created {
		return domain.ErrDuplicateID
	}
	if err := s.client.LPush(ctx, queueKey, job.ID).Err(); err != nil {
		return fmt.Errorf("redis enqueue %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisStore) save(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) ListQueued(ctx context.Context) ([]domain.Job, error) {
	// LPUSH puts newest at the head; oldest-first is the reverse of the list.
	ids, err := s.client.LRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list queue: %w", err)
	}
	out := make([]domain.Job, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		job, err := s.Get(ctx, ids[i])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *job)
	}
	return out, nil
}

func (s *RedisStore) QueueLength(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis queue length: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) ClaimNext(ctx context.Context) (*domain.Job, error) {
	id, err := s.client.RPop(ctx, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis claim: %w", err)
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatusProcessing
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *RedisStore) Complete(ctx context.Context, id string, tracks []domain.Track) error {
	return s.finish(ctx, id, func(job *domain.Job) {
		job.Status = domain.JobStatusCompleted
		job.Tracks = append([]domain.Track(nil), tracks...)
	})
}

func (s *RedisStore) Fail(ctx context.Context, id string, reason string) error {
	return s.finish(ctx, id, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.Error = reason
	})
}

func (s *RedisStore) finish(ctx context.Context, id string, apply func(*domain.Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.ErrInvalidTransition
	}
	if job.Status == domain.JobStatusQueued {
		// Keep queue membership in lockstep with the status change.
		if err := s.client.LRem(ctx, queueKey, 0, id).Err(); err != nil {
			return fmt.Errorf("redis dequeue %s: %w", id, err)
		}
	}
	apply(job)
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := s.save(ctx, job); err != nil {
		return err
	}
	if err := s.client.LPush(ctx, historyKey, id).Err(); err != nil {
		return fmt.Errorf("redis history push %s: %w", id, err)
	}
	if err := s.client.LTrim(ctx, historyKey, 0, domain.HistoryCapacity-1).Err(); err != nil {
		return fmt.Errorf("redis history trim: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = domain.StatsWindow
	}
	ids, err := s.client.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history: %w", err)
	}
	out := make([]domain.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *job)
	}
	return out, nil
}

func (s *RedisStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	queueLen, err := s.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return stats, fmt.Errorf("redis stats queue: %w", err)
	}
	historyLen, err := s.client.LLen(ctx, historyKey).Result()
	if err != nil {
		return stats, fmt.Errorf("redis stats history: %w", err)
	}
	stats.QueueLength = int(queueLen)
	stats.HistoryLength = int(historyLen)

	recent, err := s.History(ctx, domain.StatsWindow)
	if err != nil {
		return stats, err
	}
	for _, job := range recent {
		switch job.Status {
		case domain.JobStatusCompleted:
			stats.RecentCompleted++
		case domain.JobStatusFailed:
			stats.RecentFailed++
		}
	}
	return stats, nil
}

var _ domain.JobStore = (*RedisStore)(nil)
