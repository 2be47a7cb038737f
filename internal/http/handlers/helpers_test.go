package handlers_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"pulsar/internal/adapter/store"
	"pulsar/internal/domain"
	"pulsar/internal/http/handlers"
	"pulsar/internal/http/httpapi"
	"pulsar/internal/infra"
	"pulsar/internal/notify"
	"pulsar/internal/payment"
)

var errFacilitatorDown = errors.New("connection refused")

// fakeFacilitator is a programmable payment double counting calls so tests can
// assert when settlement happens.
type fakeFacilitator struct {
	verifyResult *payment.VerifyResult
	verifyErr    error
	settleResult *payment.SettleResult
	settleErr    error
	verifyCalls  int
	settleCalls  int
}

func (f *fakeFacilitator) Verify(_ context.Context, _ *payment.Credential, _ payment.Requirement) (*payment.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyResult != nil {
		return f.verifyResult, nil
	}
	return &payment.VerifyResult{IsValid: true, Payer: "0xpayer"}, nil
}

func (f *fakeFacilitator) Settle(_ context.Context, _ *payment.Credential, _ payment.Requirement) (*payment.SettleResult, error) {
	f.settleCalls++
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	if f.settleResult != nil {
		return f.settleResult, nil
	}
	return &payment.SettleResult{Success: true, Transaction: "0xtx123", Network: "base", Payer: "0xpayer"}, nil
}

// captureNotifier records orders on a channel so tests can wait for the
// fire-and-forget alert.
type captureNotifier struct {
	orders chan notify.Order
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{orders: make(chan notify.Order, 4)}
}

func (c *captureNotifier) NewOrder(_ context.Context, order notify.Order) {
	select {
	case c.orders <- order:
	default:
	}
}

func testConfig() *infra.Config {
	return &infra.Config{
		AppEnv:                     "test",
		Port:                       "8080",
		PublicBaseURL:              "http://api.test",
		StoreDriver:                "memory",
		WorkerSecret:               "worker-secret",
		PaymentNetwork:             "base",
		PayToAddress:               "0xpayto",
		AssetAddress:               "0xusdc",
		PriceAtomic:                "200000",
		PaymentTimeoutSecs:         300,
		EstimatedGenerationSeconds: 90,
		RateLimitPerMin:            100,
	}
}

func newTestApp(facilitator payment.Facilitator, notifier notify.Notifier) (*handlers.App, http.Handler, domain.JobStore) {
	cfg := testConfig()
	jobStore := store.NewMemoryStore()
	gate := payment.NewGate(payment.GateConfig{
		Network:        cfg.PaymentNetwork,
		PayTo:          cfg.PayToAddress,
		Asset:          cfg.AssetAddress,
		PriceAtomic:    cfg.PriceAtomic,
		TimeoutSeconds: cfg.PaymentTimeoutSecs,
	}, facilitator)
	if notifier == nil {
		notifier = newCaptureNotifier()
	}
	app := handlers.NewApp(jobStore, gate, notifier, cfg, zerolog.Nop())
	return app, httpapi.NewRouter(app), jobStore
}

func validPaymentHeader() string {
	raw := `{"x402Version":1,"scheme":"exact","network":"base","payload":{"signature":"0xsig"}}`
	return base64.StdEncoding.EncodeToString([]byte(raw))
}
