package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/service"
)

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		message string
		intent  string
	}{
		{"Hello!", "greetings"},
		{"What SKILLS do you have?", "skills"},
		{"show me a project", "projects"},
		{"qwzx", service.IntentDefault},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/chatbot", toJSON(t, map[string]string{"message": tt.message}))
			assertStatus(t, rr, http.StatusOK)

			var reply model.ChatReply
			decodeJSON(t, rr, &reply)
			if reply.Intent != tt.intent {
				t.Errorf("intent = %q, want %q", reply.Intent, tt.intent)
			}
			if reply.Response == "" {
				t.Error("empty response")
			}
			if reply.Timestamp != "2026-01-02T03:04:05Z" {
				t.Errorf("timestamp = %q", reply.Timestamp)
			}
		})
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`{}`, `{"message":"   "}`, `not json`} {
		rr := env.do(t, "POST", "/api/chatbot", bytesReader(body))
		assertStatus(t, rr, http.StatusBadRequest)
		assertErrorMessage(t, rr, "Message required")
	}
}

func TestChatLive(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chatbot/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, model.ChatRequest{Message: "hey"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply model.ChatReply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Intent != "greetings" {
		t.Errorf("intent = %q, want greetings", reply.Intent)
	}

	// An empty message yields an error frame and the socket stays usable.
	if err := wsjson.Write(ctx, conn, model.ChatRequest{Message: ""}); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	var errFrame model.ErrorResponse
	if err := wsjson.Read(ctx, conn, &errFrame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if errFrame.Success || errFrame.Message != "Message required" {
		t.Errorf("error frame = %+v", errFrame)
	}

	if err := wsjson.Write(ctx, conn, model.ChatRequest{Message: "contact"}); err != nil {
		t.Fatalf("write after error: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read after error: %v", err)
	}
	if reply.Intent != "contact" {
		t.Errorf("intent = %q, want contact", reply.Intent)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}
