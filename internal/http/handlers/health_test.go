package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulsar/internal/domain"
)

func TestHealth(t *testing.T) {
	_, router, jobStore := newTestApp(&fakeFacilitator{}, nil)

	for _, id := range []string{"a", "b"} {
		if err := jobStore.Create(context.Background(), &domain.Job{ID: id, Title: "t", Style: "s"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "operational" {
		t.Fatalf("status field: %v", body["status"])
	}
	queue, ok := body["queue"].(map[string]any)
	if !ok {
		t.Fatalf("queue: %v", body["queue"])
	}
	if queue["length"] != float64(2) {
		t.Fatalf("queue length: %v", queue["length"])
	}
	if queue["estimatedWaitSeconds"] != float64(180) {
		t.Fatalf("estimated wait: %v", queue["estimatedWaitSeconds"])
	}
}

func TestDiscovery(t *testing.T) {
	_, router, _ := newTestApp(&fakeFacilitator{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/discovery", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc == "" {
		t.Fatal("missing Cache-Control")
	}
	body := decodeBody(t, rec)
	resources, ok := body["resources"].([]any)
	if !ok || len(resources) == 0 {
		t.Fatalf("resources: %v", body["resources"])
	}
	pay, ok := body["payment"].(map[string]any)
	if !ok || pay["payTo"] != "0xpayto" {
		t.Fatalf("payment block: %v", body["payment"])
	}
}
