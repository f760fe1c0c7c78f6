package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/server/middleware"
	"github.com/folioapp/folio/internal/service"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testPassword  = "supersecretpassword"
)

// recordingNotifier captures contact notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	received []model.ContactMessage
}

func (n *recordingNotifier) ContactReceived(ctx context.Context, c *model.ContactMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, *c)
}

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store    *config.Store
	authSvc  *service.AuthService
	notifier *recordingNotifier
	router   chi.Router
	asAdmin  *model.Admin
}

// newTestEnv creates a fresh test environment with an in-memory config store
// and a Chi router with routes mounted. Guarded routes read the admin from
// env.asAdmin instead of a bearer token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(store, testJWTSecret, service.WithBcryptCost(bcrypt.MinCost))
	bot := service.NewChatbot(service.DefaultIntents("Sam"), service.DefaultFallback("Sam"),
		service.WithPicker(func(int) int { return 0 }),
		service.WithChatClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
	env := &testEnv{store: store, authSvc: authSvc, notifier: &recordingNotifier{}}

	admins := NewAdminHandler(store, authSvc, logger)
	projects := NewProjectHandler(store, logger)
	testimonials := NewTestimonialHandler(store, logger)
	contact := NewContactHandler(store, env.notifier, logger)
	chat := NewChatbotHandler(bot, nil, logger)
	system := NewSystemHandler(store, "test")

	asAdmin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if env.asAdmin != nil {
				r = r.WithContext(middleware.WithAdmin(r.Context(), env.asAdmin))
			}
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	r.NotFound(system.NotFound)
	r.MethodNotAllowed(system.MethodNotAllowed)
	r.Get("/", system.Index)
	r.Get("/api/health", system.Health)
	r.Post("/api/admin/login", admins.Login)
	r.With(asAdmin).Get("/api/admin/profile", admins.Profile)
	r.With(asAdmin).Post("/api/admin/logout", admins.Logout)

	r.Get("/api/projects", projects.List)
	r.Get("/api/projects/{idOrSlug}", projects.Get)
	r.Post("/api/projects", projects.Create)
	r.Put("/api/projects/{id}", projects.Update)
	r.Delete("/api/projects/{id}", projects.Delete)

	r.Get("/api/testimonials", testimonials.List)
	r.Post("/api/testimonials", testimonials.Create)
	r.Put("/api/testimonials/{id}", testimonials.Update)
	r.Delete("/api/testimonials/{id}", testimonials.Delete)

	r.Post("/api/contact", contact.Send)
	r.Get("/api/contact", contact.List)
	r.Patch("/api/contact/{id}", contact.UpdateStatus)
	r.Delete("/api/contact/{id}", contact.Delete)

	r.Post("/api/chatbot", chat.Chat)
	r.Get("/api/chatbot/ws", chat.Live)

	env.router = r
	return env
}

// seedAdmin creates a default admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T) *model.Admin {
	t.Helper()
	admin, err := e.authSvc.CreateAdmin(context.Background(), "admin@example.com", testPassword, "Test Admin", "")
	if err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func assertErrorMessage(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Success {
		t.Error("success = true in error response")
	}
	if resp.Message != want {
		t.Errorf("message = %q, want %q", resp.Message, want)
	}
}
