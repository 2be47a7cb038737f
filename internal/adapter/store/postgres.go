package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pulsar/internal/domain"
	"pulsar/internal/infra"
	"pulsar/internal/sqlinline"
)

// PostgresStore implements domain.JobStore on top of Postgres. The pending
// queue is the set of queued rows ordered by created_at; claiming is a single
// SKIP LOCKED statement, so two workers can never pop the same job.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

func (s *PostgresStore) Create(ctx context.Context, job *domain.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.Status = domain.JobStatusQueued
	row := s.sql.QueryRow(ctx, sqlinline.QInsertJob, job.ID, job.Title, job.Style, job.TxHash, job.Payer, job.CreatedAt)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectJob, id)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) ListQueued(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectQueued)
	if err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	return collectJobs(rows)
}

func (s *PostgresStore) QueueLength(ctx context.Context) (int, error) {
	var n int
	if err := s.sql.QueryRow(ctx, sqlinline.QQueueLength).Scan(&n); err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ClaimNext(ctx context.Context) (*domain.Job, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QClaimNextJob)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, tracks []domain.Track) error {
	tracksJSON, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("marshal tracks: %w", err)
	}
	return s.finish(ctx, id, domain.JobStatusCompleted, tracksJSON, nil)
}

func (s *PostgresStore) Fail(ctx context.Context, id string, reason string) error {
	return s.finish(ctx, id, domain.JobStatusFailed, nil, &reason)
}

func (s *PostgresStore) finish(ctx context.Context, id string, status domain.JobStatus, tracksJSON []byte, reason *string) error {
	row := s.sql.QueryRow(ctx, sqlinline.QFinishJob, id, status, nullableBytes(tracksJSON), reason)
	var finished string
	if err := row.Scan(&finished); err != nil {
		if !infra.IsNoRows(err) {
			return fmt.Errorf("finish job: %w", err)
		}
		// The guarded update matched nothing: either the id is unknown or the
		// job is already terminal.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return domain.ErrInvalidTransition
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QInsertHistory, id); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QPruneHistory, domain.HistoryCapacity); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = domain.StatsWindow
	}
	rows, err := s.sql.Query(ctx, sqlinline.QSelectHistory, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return collectJobs(rows)
}

func (s *PostgresStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if err := s.sql.QueryRow(ctx, sqlinline.QQueueLength).Scan(&stats.QueueLength); err != nil {
		return stats, fmt.Errorf("stats queue length: %w", err)
	}
	if err := s.sql.QueryRow(ctx, sqlinline.QHistoryLength).Scan(&stats.HistoryLength); err != nil {
		return stats, fmt.Errorf("stats history length: %w", err)
	}
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

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var tracksJSON []byte
	var errMsg *string
	if err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Style,
		&job.Status,
		&job.TxHash,
		&job.Payer,
		&tracksJSON,
		&errMsg,
		&job.CreatedAt,
		&job.CompletedAt,
	); err != nil {
		return nil, err
	}
	if len(tracksJSON) > 0 {
		if err := json.Unmarshal(tracksJSON, &job.Tracks); err != nil {
			return nil, fmt.Errorf("unmarshal tracks: %w", err)
		}
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	return &job, nil
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	defer rows.Close()
	var out []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobStore = (*PostgresStore)(nil)
