package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestTelegramSendSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Send(context.Background(), "🛫 Flight Update"); err != nil {
		t.Fatalf("Telegram Send 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if received["text"] != "🛫 Flight Update" {
		t.Fatalf("text 不正确: %#v", received)
	}
	if received["parse_mode"] != "Markdown" {
		t.Fatalf("parse_mode 应为 Markdown: %#v", received)
	}
}

func TestTelegramSendNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Send(context.Background(), "text"); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestTelegramSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegram("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Send(context.Background(), "text"); err == nil {
		t.Fatal("HTTP 502 应报错")
	}
}
