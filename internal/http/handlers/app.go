package handlers

import (
	"encoding/json"
	"net/http"

	"pulsar/internal/domain"
	"pulsar/internal/infra"
	"pulsar/internal/notify"
	"pulsar/internal/payment"
)

// App carries the dependencies shared by all HTTP handlers.
type App struct {
	Store    domain.JobStore
	Gate     *payment.Gate
	Notifier notify.Notifier
	Config   *infra.Config
	Logger   infra.Logger
}

func NewApp(store domain.JobStore, gate *payment.Gate, notifier notify.Notifier, cfg *infra.Config, logger infra.Logger) *App {
	return &App{Store: store, Gate: gate, Notifier: notifier, Config: cfg, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"success": false,
		"error":   errCode,
		"message": message,
	})
}

// paymentRequired answers 402 with fresh payment instructions. Every payment
// failure path funnels here so the client always receives an accepts array it
// can retry against.
func (a *App) paymentRequired(w http.ResponseWriter, resource, reason string) {
	a.json(w, http.StatusPaymentRequired, map[string]any{
		"x402Version": payment.X402Version,
		"error":       reason,
		"accepts":     []payment.Requirement{a.Gate.BuildRequirement(resource)},
	})
}
