package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pulsar/internal/domain"
	"pulsar/internal/infra"
)

const jobPollInterval = 2 * time.Second

var errNoJobAvailable = errors.New("no job available")

// Generator produces audio track URLs for a claimed job.
type Generator interface {
	Generate(ctx context.Context, title, style string) ([]string, error)
}

type jobWorker struct {
	ctx       context.Context
	api       *controlClient
	logger    infra.Logger
	generator Generator
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := &jobWorker{
		ctx: ctx,
		api: &controlClient{
			baseURL:    cfg.PublicBaseURL,
			secret:     cfg.WorkerSecret,
			httpClient: &http.Client{Timeout: 60 * time.Second},
		},
		logger:    logger,
		generator: syntheticGenerator{},
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.api.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, errNoJobAvailable) {
				time.Sleep(jobPollInterval)
				continue
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			time.Sleep(jobPollInterval)
			continue
		}

		w.handleJob(job)
	}
}

func (w *jobWorker) handleJob(job *domain.Job) {
	w.logger.Info().Str("job_id", job.ID).Str("style", job.Style).Msg("worker: picked job")

	urls, err := w.generator.Generate(w.ctx, job.Title, job.Style)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: generation failed")
		if failErr := w.api.Fail(w.ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("worker: report failure failed")
		}
		return
	}

	if err := w.api.Complete(w.ctx, job.ID, urls); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: report completion failed")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Msg("worker: job completed")
}

// controlClient drives the privileged worker-control API over HTTP.
type controlClient struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func (c *controlClient) Claim(ctx context.Context) (*domain.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/worker?action=claim", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("claim: http %d", resp.StatusCode)
	}
	var out struct {
		Job *domain.Job `json:"job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Job == nil {
		return nil, errNoJobAvailable
	}
	return out.Job, nil
}

func (c *controlClient) Complete(ctx context.Context, jobID string, urls []string) error {
	body := map[string]string{"action": "complete", "jobId": jobID}
	if len(urls) > 0 {
		body["audioUrl"] = urls[0]
	}
	if len(urls) > 1 {
		body["songUrl"] = urls[1]
	}
	return c.post(ctx, body)
}

func (c *controlClient) Fail(ctx context.Context, jobID, reason string) error {
	return c.post(ctx, map[string]string{"action": "fail", "jobId": jobID, "error": reason})
}

func (c *controlClient) post(ctx context.Context, body map[string]string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/worker", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker post: http %d", resp.StatusCode)
	}
	return nil
}

// syntheticGenerator returns deterministic placeholder tracks. It stands in
// for a real music provider when none is configured, mirroring the two-track
// output of the production pipeline.
type syntheticGenerator struct{}

func (syntheticGenerator) Generate(_ context.Context, title, style string) ([]string, error) {
	seed := sha256.Sum256([]byte(title + "|" + style))
	return []string{
		fmt.Sprintf("https://cdn.pulsar.local/tracks/%x-v1.mp3", seed[:8]),
		fmt.Sprintf("https://cdn.pulsar.local/tracks/%x-v2.mp3", seed[:8]),
	}, nil
}
