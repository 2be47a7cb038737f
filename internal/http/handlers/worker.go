package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pulsar/internal/domain"
)

// authenticateWorker checks the shared worker secret against three equivalent
// presentation forms; any one match grants access.
func (a *App) authenticateWorker(r *http.Request) bool {
	secret := a.Config.WorkerSecret
	if auth := r.Header.Get("Authorization"); auth != "" {
		token := strings.TrimPrefix(auth, "Bearer ")
		if secretEqual(token, secret) {
			return true
		}
	}
	if secretEqual(r.Header.Get("X-Worker-Secret"), secret) {
		return true
	}
	return secretEqual(r.URL.Query().Get("secret"), secret)
}

func secretEqual(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// WorkerGet serves the worker-control read surface: public stats and history,
// authenticated claim, and an authenticated inspection list of queued jobs.
func (a *App) WorkerGet(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	switch action {
	case "status":
		stats, err := a.Store.Stats(r.Context())
		if err != nil {
			a.Logger.Error().Err(err).Msg("worker: stats failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
			return
		}
		a.json(w, http.StatusOK, stats)
		return

	case "history":
		limit := domain.StatsWindow
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		jobs, err := a.Store.History(r.Context(), limit)
		if err != nil {
			a.Logger.Error().Err(err).Msg("worker: history failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
			return
		}
		a.json(w, http.StatusOK, map[string]any{"jobs": jobs})
		return
	}

	if !a.authenticateWorker(r) {
		a.json(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	if action == "claim" {
		job, err := a.Store.ClaimNext(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.json(w, http.StatusOK, map[string]any{"job": nil, "message": "No jobs in queue"})
				return
			}
			a.Logger.Error().Err(err).Msg("worker: claim failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to claim job")
			return
		}
		a.Logger.Info().Str("job_id", job.ID).Msg("worker: job claimed")
		a.json(w, http.StatusOK, map[string]any{"job": job})
		return
	}

	// Default: inspection view of the queue without claiming.
	queued, err := a.Store.ListQueued(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("worker: list queued failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	items := make([]map[string]any, 0, len(queued))
	for _, job := range queued {
		items = append(items, map[string]any{
			"jobId":     job.ID,
			"title":     job.Title,
			"style":     job.Style,
			"createdAt": job.CreatedAt.Format(time.RFC3339),
			"payer":     job.Payer,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": items})
}

type workerPostRequest struct {
	Action   string `json:"action"`
	JobID    string `json:"jobId"`
	AudioURL string `json:"audioUrl"`
	SongURL  string `json:"songUrl"`
	Error    string `json:"error"`
}

// WorkerPost lets an authenticated worker report the outcome of a claimed job.
func (a *App) WorkerPost(w http.ResponseWriter, r *http.Request) {
	if !a.authenticateWorker(r) {
		a.json(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req workerPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.JobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Missing jobId")
		return
	}

	switch req.Action {
	case "complete":
		if req.AudioURL == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "Missing audioUrl")
			return
		}
		tracks := []domain.Track{{URL: req.AudioURL}}
		if req.SongURL != "" {
			tracks = append(tracks, domain.Track{URL: req.SongURL})
		}
		if err := a.finishJob(w, req.JobID, func() error {
			return a.Store.Complete(r.Context(), req.JobID, tracks)
		}); err != nil {
			return
		}
		jobsCompletedTotal.Inc()
		a.Logger.Info().Str("job_id", req.JobID).Msg("worker: job completed")
		a.json(w, http.StatusOK, map[string]any{"success": true, "jobId": req.JobID, "status": domain.JobStatusCompleted})

	case "fail":
		reason := req.Error
		if reason == "" {
			reason = "Unknown error"
		}
		if err := a.finishJob(w, req.JobID, func() error {
			return a.Store.Fail(r.Context(), req.JobID, reason)
		}); err != nil {
			return
		}
		jobsFailedTotal.Inc()
		a.Logger.Info().Str("job_id", req.JobID).Str("reason", reason).Msg("worker: job failed")
		a.json(w, http.StatusOK, map[string]any{"success": true, "jobId": req.JobID, "status": domain.JobStatusFailed})

	default:
		a.error(w, http.StatusBadRequest, "bad_request", "Invalid action")
	}
}

// finishJob runs a terminal transition and writes the error response when it
// does not apply. Returns a non-nil error when a response was already written.
func (a *App) finishJob(w http.ResponseWriter, jobID string, apply func() error) error {
	err := apply()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "Job not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "conflict", "Job is already finished")
	default:
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("worker: finish job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update job")
	}
	return err
}
