package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pulsar/internal/domain"
	"pulsar/internal/notify"
)

type generateRequest struct {
	Title string `json:"title"`
	Style string `json:"style"`
}

// Generate sells one music generation. The ordering is the load-bearing
// contract: verify the credential, then validate the business input, then
// settle, then create the job. A request that cannot produce a job must never
// consume payment, and a job must never exist without a settled payment.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	resource := a.Config.PublicBaseURL + "/api/generate"

	header := r.Header.Get("X-PAYMENT")
	if header == "" {
		a.paymentRequired(w, resource, "X-PAYMENT header is required")
		return
	}

	credential, err := a.Gate.DecodeCredential(header)
	if err != nil {
		// Log shape only, never the credential itself.
		a.Logger.Warn().Err(err).Int("header_len", len(header)).Msg("generate: undecodable payment header")
		a.paymentRequired(w, resource, "Invalid payment format")
		return
	}

	requirement := a.Gate.BuildRequirement(resource)

	verify, err := a.Gate.Facilitator.Verify(r.Context(), credential, requirement)
	if err != nil {
		a.Logger.Error().Err(err).Msg("generate: facilitator verify failed")
		a.paymentRequired(w, resource, "Payment verification unavailable")
		return
	}
	if !verify.IsValid {
		paymentsRejectedTotal.Inc()
		reason := verify.InvalidReason
		if reason == "" {
			reason = "Payment verification failed"
		}
		a.Logger.Warn().Str("reason", reason).Str("scheme", credential.Scheme).Str("network", credential.Network).Msg("generate: payment rejected")
		a.paymentRequired(w, resource, reason)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body", "Request body must be JSON with 'title' and 'style'")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Style = strings.TrimSpace(req.Style)
	if req.Title == "" || req.Style == "" {
		// Invalid input must not consume payment: settle is never reached.
		a.error(w, http.StatusBadRequest, "Missing required fields", "Both 'title' and 'style' are required")
		return
	}

	settle, err := a.Gate.Facilitator.Settle(r.Context(), credential, requirement)
	if err != nil {
		a.Logger.Error().Err(err).Msg("generate: facilitator settle failed")
		a.paymentRequired(w, resource, "Payment settlement unavailable")
		return
	}
	if !settle.Success {
		paymentsRejectedTotal.Inc()
		reason := settle.ErrorReason
		if reason == "" {
			reason = "Payment settlement failed"
		}
		a.Logger.Warn().Str("reason", reason).Msg("generate: settlement rejected")
		a.paymentRequired(w, resource, reason)
		return
	}
	paymentsSettledTotal.Inc()

	jobID := uuid.NewString()
	trackTitle := fmt.Sprintf("%s [%s]", req.Title, jobID[:8])
	job := &domain.Job{
		ID:     jobID,
		Title:  trackTitle,
		Style:  req.Style,
		TxHash: settle.Transaction,
		Payer:  settle.Payer,
	}
	if err := a.Store.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("generate: create job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	jobsQueuedTotal.Inc()

	position, err := a.Store.QueueLength(r.Context())
	if err != nil || position < 1 {
		position = 1
	}
	estimatedWait := position * a.Config.EstimatedGenerationSeconds

	a.Logger.Info().
		Str("job_id", jobID).
		Str("tx", settle.Transaction).
		Int("position", position).
		Msg("generate: paid job queued")

	// Off-path operator alert; its outcome never touches the response.
	go a.Notifier.NewOrder(context.Background(), notify.Order{
		JobID: jobID,
		Title: trackTitle,
		Style: req.Style,
		Payer: settle.Payer,
		Price: "$0.20 USDC",
	})

	settlementEcho, _ := json.Marshal(map[string]any{
		"success":     true,
		"transaction": settle.Transaction,
		"network":     settle.Network,
		"payer":       settle.Payer,
	})
	w.Header().Set("X-PAYMENT-RESPONSE", base64.StdEncoding.EncodeToString(settlementEcho))

	a.json(w, http.StatusAccepted, map[string]any{
		"success":              true,
		"jobId":                jobID,
		"status":               domain.JobStatusQueued,
		"position":             position,
		"estimatedWaitSeconds": estimatedWait,
		"message":              fmt.Sprintf("Your track %q is queued. Poll /api/status/%s for updates.", req.Title, jobID),
		"statusUrl":            "/api/status/" + jobID,
		"createdAt":            job.CreatedAt.Format(time.RFC3339),
		"payment": map[string]any{
			"transaction": settle.Transaction,
			"payer":       settle.Payer,
		},
	})
}
