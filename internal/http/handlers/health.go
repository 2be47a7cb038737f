package handlers

import "net/http"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Store.Stats(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("health: stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"service": "pulsar",
		"version": "1.0.0",
		"status":  "operational",
		"queue": map[string]any{
			"length":               stats.QueueLength,
			"estimatedWaitSeconds": stats.QueueLength * a.Config.EstimatedGenerationSeconds,
		},
		"pricing": map[string]string{
			"generate": "$0.20 USDC",
			"status":   "free",
		},
	})
}
