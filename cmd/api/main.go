package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pulsar/internal/adapter/store"
	"pulsar/internal/domain"
	"pulsar/internal/http/handlers"
	"pulsar/internal/http/httpapi"
	"pulsar/internal/infra"
	"pulsar/internal/notify"
	"pulsar/internal/payment"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	jobStore, cleanup, err := newJobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to initialize job store")
	}
	defer cleanup()

	facilitator := payment.NewClient(payment.ClientOptions{
		BaseURL:  cfg.FacilitatorURL,
		APIToken: cfg.FacilitatorAPIToken,
		Logger:   &logger,
	})
	gate := payment.NewGate(payment.GateConfig{
		Network:        cfg.PaymentNetwork,
		PayTo:          cfg.PayToAddress,
		Asset:          cfg.AssetAddress,
		PriceAtomic:    cfg.PriceAtomic,
		TimeoutSeconds: cfg.PaymentTimeoutSecs,
	}, facilitator)
	notifier := notify.NewTelegram(notify.TelegramOptions{
		Token:  cfg.TelegramBotToken,
		ChatID: cfg.TelegramChatID,
		Logger: logger,
	})

	app := handlers.NewApp(jobStore, gate, notifier, cfg, logger)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("driver", cfg.StoreDriver).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newJobStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.JobStore, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return store.NewPostgresStore(runner), pool.Close, nil
	case "redis":
		client := infra.NewRedisClient(cfg.RedisAddr)
		return store.NewRedisStore(client), func() { _ = client.Close() }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}
