package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pulsar/internal/domain"
)

// Status is the read-only polling endpoint. It never mutates job state.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := a.Store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Job not found", "Invalid job ID or job has expired")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status: load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	resp := map[string]any{
		"success":   true,
		"jobId":     job.ID,
		"status":    job.Status,
		"title":     job.Title,
		"style":     job.Style,
		"createdAt": job.CreatedAt.Format(time.RFC3339),
	}

	avg := a.Config.EstimatedGenerationSeconds
	switch job.Status {
	case domain.JobStatusQueued:
		position := a.queuePosition(r.Context(), job.ID)
		resp["position"] = position
		resp["estimatedWaitSeconds"] = position * avg
		minutes := int(math.Ceil(float64(position*avg) / 60))
		resp["message"] = fmt.Sprintf("Your track is #%d in queue. Estimated wait: ~%d minutes.", position, minutes)
	case domain.JobStatusProcessing:
		resp["position"] = 0
		resp["estimatedWaitSeconds"] = avg / 2
		resp["message"] = "Your track is being generated now. This typically takes 60-90 seconds."
	case domain.JobStatusCompleted:
		resp["tracks"] = job.Tracks
		resp["completedAt"] = job.CompletedAt.Format(time.RFC3339)
		resp["deliverySeconds"] = int(job.CompletedAt.Sub(job.CreatedAt).Seconds())
		resp["message"] = "Your tracks are ready! URLs are valid for streaming and download."
	case domain.JobStatusFailed:
		resp["error"] = job.Error
		resp["completedAt"] = job.CompletedAt.Format(time.RFC3339)
		resp["message"] = "Generation failed. Contact support for assistance."
	}

	a.json(w, http.StatusOK, resp)
}

// queuePosition returns the 1-based index of the job in the pending queue, or
// 0 when it is no longer queued.
func (a *App) queuePosition(ctx context.Context, jobID string) int {
	queued, err := a.Store.ListQueued(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("status: list queued failed")
		return 1
	}
	for i, job := range queued {
		if job.ID == jobID {
			return i + 1
		}
	}
	return 0
}
