package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTelegramNewOrder(t *testing.T) {
	type sendMessage struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}

	var got sendMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramOptions{
		Token:   "bot-token",
		ChatID:  "12345",
		BaseURL: srv.URL,
		Logger:  zerolog.Nop(),
	})
	tg.NewOrder(context.Background(), Order{
		JobID: "job-1",
		Title: "Sunset Vibes [abc12345]",
		Style: "lo-fi",
		Payer: "0x1234567890abcdef",
		Price: "$0.20 USDC",
	})

	if path != "/botbot-token/sendMessage" {
		t.Fatalf("path: %s", path)
	}
	if got.ChatID != "12345" || got.ParseMode != "HTML" {
		t.Fatalf("message envelope: %+v", got)
	}
	if !strings.Contains(got.Text, "job-1") || !strings.Contains(got.Text, "Sunset Vibes") {
		t.Fatalf("message text: %s", got.Text)
	}
	// Payer address is truncated in the alert.
	if strings.Contains(got.Text, "0x1234567890abcdef") {
		t.Fatalf("full payer address leaked: %s", got.Text)
	}
	if !strings.Contains(got.Text, "0x12345678...") {
		t.Fatalf("truncated payer missing: %s", got.Text)
	}
}

func TestTelegramUnconfiguredSkips(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramOptions{BaseURL: srv.URL, Logger: zerolog.Nop()})
	tg.NewOrder(context.Background(), Order{JobID: "job-1"})

	if called {
		t.Fatal("unconfigured notifier sent a request")
	}
}

func TestTelegramServerErrorSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramOptions{
		Token:   "tok",
		ChatID:  "1",
		BaseURL: srv.URL,
		Logger:  zerolog.Nop(),
	})
	// Must not panic or propagate anything.
	tg.NewOrder(context.Background(), Order{JobID: "job-1"})
}
