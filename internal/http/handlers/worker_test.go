package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pulsar/internal/domain"
)

func workerGet(router http.Handler, target string, authorize func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorize != nil {
		authorize(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func workerPost(router http.Handler, body string, authorize func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/worker", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorize != nil {
		authorize(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func bearerAuth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer worker-secret")
}

func TestWorkerAuthChannels(t *testing.T) {
	_, router, _ := newTestApp(&fakeFacilitator{}, nil)

	cases := []struct {
		name      string
		target    string
		authorize func(*http.Request)
		want      int
	}{
		{"no secret", "/api/worker?action=claim", nil, http.StatusUnauthorized},
		{"wrong secret", "/api/worker?action=claim", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer wrong")
		}, http.StatusUnauthorized},
		{"bearer header", "/api/worker?action=claim", bearerAuth, http.StatusOK},
		{"worker header", "/api/worker?action=claim", func(r *http.Request) {
			r.Header.Set("X-Worker-Secret", "worker-secret")
		}, http.StatusOK},
		{"query param", "/api/worker?action=claim&secret=worker-secret", nil, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := workerGet(router, tc.target, tc.authorize)
			if rec.Code != tc.want {
				t.Fatalf("status: got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestWorkerPublicActions(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	if err := jobStore.Create(context.Background(), &domain.Job{ID: "h1", Title: "t", Style: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := jobStore.Fail(context.Background(), "h1", "x"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	// Stats and history require no secret.
	if rec := workerGet(router, "/api/worker?action=status", nil); rec.Code != http.StatusOK {
		t.Fatalf("status action: got %d", rec.Code)
	}
	rec := workerGet(router, "/api/worker?action=history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history action: got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	jobs, ok := body["jobs"].([]any)
	if !ok || len(jobs) != 1 {
		t.Fatalf("history jobs: %v", body["jobs"])
	}
}

func TestWorkerClaim(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	if err := jobStore.Create(context.Background(), &domain.Job{ID: "c1", Title: "t", Style: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := workerGet(router, "/api/worker?action=claim", bearerAuth)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim: got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	job, ok := body["job"].(map[string]any)
	if !ok {
		t.Fatalf("job: %v", body["job"])
	}
	if job["id"] != "c1" || job["status"] != "processing" {
		t.Fatalf("claimed job: %v", job)
	}

	// Queue is now empty; the claim answer is a null job, not an error.
	rec = workerGet(router, "/api/worker?action=claim", bearerAuth)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim on empty: got %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["job"] != nil {
		t.Fatalf("empty claim job: %v", body["job"])
	}
	if body["message"] != "No jobs in queue" {
		t.Fatalf("empty claim message: %v", body["message"])
	}
}

func TestWorkerQueueInspection(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	if err := jobStore.Create(context.Background(), &domain.Job{ID: "q1", Title: "t", Style: "s", Payer: "0xpayer"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := workerGet(router, "/api/worker", bearerAuth)
	if rec.Code != http.StatusOK {
		t.Fatalf("inspect: got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	jobs, ok := body["jobs"].([]any)
	if !ok || len(jobs) != 1 {
		t.Fatalf("jobs: %v", body["jobs"])
	}
	item := jobs[0].(map[string]any)
	if item["jobId"] != "q1" || item["payer"] != "0xpayer" {
		t.Fatalf("item: %v", item)
	}
}

func TestWorkerComplete(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	if err := jobStore.Create(context.Background(), &domain.Job{ID: "w1", Title: "t", Style: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := workerPost(router, `{"action":"complete","jobId":"w1","audioUrl":"https://cdn.test/a.mp3","songUrl":"https://cdn.test/b.mp3"}`, bearerAuth)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: got %d (%s)", rec.Code, rec.Body.String())
	}

	job, err := jobStore.Get(context.Background(), "w1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status: %s", job.Status)
	}
	if len(job.Tracks) != 2 {
		t.Fatalf("tracks: %+v", job.Tracks)
	}

	// Completing again conflicts.
	rec = workerPost(router, `{"action":"complete","jobId":"w1","audioUrl":"https://cdn.test/a.mp3"}`, bearerAuth)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double complete: got %d, want 409", rec.Code)
	}
}

func TestWorkerCompleteValidation(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	if err := jobStore.Create(context.Background(), &domain.Job{ID: "w2", Title: "t", Style: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if rec := workerPost(router, `{"action":"complete","jobId":"w2"}`, bearerAuth); rec.Code != http.StatusBadRequest {
		t.Fatalf("complete without audioUrl: got %d, want 400", rec.Code)
	}
	if rec := workerPost(router, `{"action":"complete","audioUrl":"u"}`, bearerAuth); rec.Code != http.StatusBadRequest {
		t.Fatalf("complete without jobId: got %d, want 400", rec.Code)
	}
	if rec := workerPost(router, `{"action":"complete","jobId":"ghost","audioUrl":"u"}`, bearerAuth); rec.Code != http.StatusNotFound {
		t.Fatalf("complete unknown job: got %d, want 404", rec.Code)
	}
	if rec := workerPost(router, `{"action":"dance","jobId":"w2"}`, bearerAuth); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid action: got %d, want 400", rec.Code)
	}
	if rec := workerPost(router, `{"action":"complete","jobId":"w2","audioUrl":"u"}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated post: got %d, want 401", rec.Code)
	}
}

func TestWorkerFail(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	if err := jobStore.Create(context.Background(), &domain.Job{ID: "w3", Title: "t", Style: "s"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := workerPost(router, `{"action":"fail","jobId":"w3"}`, bearerAuth)
	if rec.Code != http.StatusOK {
		t.Fatalf("fail: got %d", rec.Code)
	}

	job, err := jobStore.Get(context.Background(), "w3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status: %s", job.Status)
	}
	if job.Error != "Unknown error" {
		t.Fatalf("default reason: %q", job.Error)
	}
}
