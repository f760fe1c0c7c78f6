package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/service"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const (
	testJWTSecret = "test-secret-for-jwt-integration-tests"
	testEmail     = "admin1@portfolio.com"
	testPassword  = "Admin1234"
	testAdminName = "Test Admin"
)

// testEnv holds all the shared state for integration tests.
type testEnv struct {
	server  *Server
	store   *config.Store
	authSvc *service.AuthService
}

// newTestEnv creates a fresh test environment with an in-memory config store
// and a fully wired Server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, DefaultConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	authSvc := service.NewAuthService(store, testJWTSecret, service.WithBcryptCost(bcrypt.MinCost))
	bot := service.NewChatbot(service.DefaultIntents("Sam"), service.DefaultFallback("Sam"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := New(cfg, store, authSvc, bot, nil, logger)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	return &testEnv{
		server:  srv,
		store:   store,
		authSvc: authSvc,
	}
}

// seedAdmin creates the default admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T) *model.Admin {
	t.Helper()
	admin, err := e.authSvc.CreateAdmin(context.Background(), testEmail, testPassword, testAdminName, "")
	if err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// adminToken seeds an admin and logs in through the API, returning the token.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	e.seedAdmin(t)

	rr := e.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"email":    testEmail,
		"password": testPassword,
	}), nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.LoginResponse
	decodeJSON(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("adminToken: empty token in login response")
	}
	return resp.Token
}

// do executes an HTTP request against the test server and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// doAuth executes an HTTP request with a bearer token.
func (e *testEnv) doAuth(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func assertContentType(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	got := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(got, want) {
		t.Errorf("Content-Type = %q, want prefix %q", got, want)
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assertStatus(t, rr, status)
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Success {
		t.Error("success = true in error response")
	}
	if resp.Message != message {
		t.Errorf("message = %q, want %q", resp.Message, message)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAdminLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rr := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"email":    testEmail,
		"password": testPassword,
	}), nil)
	assertStatus(t, rr, http.StatusOK)
	assertContentType(t, rr, "application/json")

	var resp model.LoginResponse
	decodeJSON(t, rr, &resp)
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Token == "" {
		t.Error("expected non-empty token")
	}
	if resp.Admin.Email != testEmail {
		t.Errorf("admin.email = %q, want %q", resp.Admin.Email, testEmail)
	}
	if rr.Body.Len() > 0 && strings.Contains(rr.Body.String(), "$2a$") {
		t.Error("response contains a bcrypt hash")
	}

	claims, err := env.authSvc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.ID != resp.Admin.ID || claims.Name != testAdminName || claims.Role != model.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != service.TokenTTL {
		t.Errorf("token lifetime = %v, want %v", got, service.TokenTTL)
	}
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rr := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"email":    testEmail,
		"password": "wrong",
	}), nil)
	assertError(t, rr, http.StatusUnauthorized, "Invalid email or password")
}

func TestAdminLogin_UnknownEmailIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	wrongPassword := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"email": testEmail, "password": "wrong",
	}), nil)
	unknownEmail := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"email": "nobody@portfolio.com", "password": "wrong",
	}), nil)

	if wrongPassword.Code != unknownEmail.Code {
		t.Errorf("status differs: %d vs %d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("body differs:\n%s\n%s", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestAdminLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]string{
		{"email": testEmail},
		{"password": testPassword},
		{},
	} {
		rr := env.do(t, "POST", "/api/admin/login", jsonBody(t, body), nil)
		assertError(t, rr, http.StatusBadRequest, "Please provide both email and password")
	}
}

func TestAdminLogin_CaseInsensitiveEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rr := env.do(t, "POST", "/api/admin/login", jsonBody(t, map[string]string{
		"email":    "  Admin1@Portfolio.COM ",
		"password": testPassword,
	}), nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestAuthLoginAlias(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rr := env.do(t, "POST", "/api/auth/login", jsonBody(t, map[string]string{
		"email":    testEmail,
		"password": testPassword,
	}), nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestAdminLogin_ConcurrentLogins(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	const n = 2
	var wg sync.WaitGroup
	tokens := make([]string, n)
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"email": testEmail, "password": testPassword})
			req := httptest.NewRequest("POST", "/api/admin/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			env.server.ServeHTTP(rr, req)

			codes[i] = rr.Code
			var resp model.LoginResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err == nil {
				tokens[i] = resp.Token
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if codes[i] != http.StatusOK {
			t.Fatalf("login %d status = %d", i, codes[i])
		}
		if _, err := env.authSvc.VerifyToken(tokens[i]); err != nil {
			t.Errorf("token %d: %v", i, err)
		}
		rr := env.doAuth(t, "GET", "/api/admin/profile", nil, tokens[i])
		assertStatus(t, rr, http.StatusOK)
	}

	stored, err := env.store.GetAdmin(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Fatal("lastLoginAt not recorded")
	}
	if time.Since(*stored.LastLoginAt) > time.Minute {
		t.Errorf("lastLoginAt = %v, want a recent login time", stored.LastLoginAt)
	}
}

// ---------------------------------------------------------------------------
// Auth guard
// ---------------------------------------------------------------------------

func TestProfile_NoToken(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/admin/profile", nil, nil)
	assertError(t, rr, http.StatusUnauthorized, "Not authorized, no token")

	rr = env.do(t, "GET", "/api/admin/profile", nil, map[string]string{"Authorization": "Bearer "})
	assertError(t, rr, http.StatusUnauthorized, "Not authorized, no token")
}

func TestProfile_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	past := time.Now().Add(-31 * 24 * time.Hour)
	oldAuth := service.NewAuthService(env.store, testJWTSecret, service.WithClock(func() time.Time { return past }))
	token, err := oldAuth.IssueToken(admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rr := env.doAuth(t, "GET", "/api/admin/profile", nil, token)
	assertError(t, rr, http.StatusUnauthorized, "Not authorized, token expired")
}

func TestProfile_InvalidTokens(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	otherSecret, err := service.NewAuthService(env.store, "some-other-secret").IssueToken(admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	valid, err := env.authSvc.IssueToken(admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  admin.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"other secret": otherSecret,
		"tampered":     tampered,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			rr := env.doAuth(t, "GET", "/api/admin/profile", nil, token)
			assertError(t, rr, http.StatusUnauthorized, "Not authorized, invalid token")
		})
	}
}

func TestProfile_DeletedAdmin(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	admin, err := env.store.GetAdminByEmail(context.Background(), testEmail)
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if err := env.store.DeleteAdmin(context.Background(), admin.ID); err != nil {
		t.Fatalf("DeleteAdmin: %v", err)
	}

	rr := env.doAuth(t, "GET", "/api/admin/profile", nil, token)
	assertError(t, rr, http.StatusUnauthorized, "Not authorized, admin not found")
}

func TestProfile_Success(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.do(t, "GET", "/api/admin/profile", nil, map[string]string{"Authorization": "bearer " + token})
	assertStatus(t, rr, http.StatusOK)

	var resp model.ProfileResponse
	decodeJSON(t, rr, &resp)
	if !resp.Success || resp.Admin.Email != testEmail {
		t.Errorf("profile = %+v", resp)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.doAuth(t, "POST", "/api/admin/logout", nil, token)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "POST", "/api/admin/logout", nil, nil)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestGuardedRoutes_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{"POST", "/api/projects"},
		{"PUT", "/api/projects/x"},
		{"DELETE", "/api/projects/x"},
		{"POST", "/api/testimonials"},
		{"PUT", "/api/testimonials/x"},
		{"DELETE", "/api/testimonials/x"},
		{"GET", "/api/contact"},
		{"GET", "/api/contact/messages"},
		{"PATCH", "/api/contact/x"},
		{"DELETE", "/api/contact/x"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := env.do(t, rt.method, rt.path, jsonBody(t, map[string]string{}), nil)
			assertError(t, rr, http.StatusUnauthorized, "Not authorized, no token")
		})
	}
}

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.doAuth(t, "POST", "/api/projects", jsonBody(t, map[string]interface{}{
		"title":            "Folio",
		"description":      "Portfolio backend",
		"shortDescription": "Backend",
		"technologies":     []string{"Go"},
		"featured":         true,
	}), token)
	assertStatus(t, rr, http.StatusCreated)
	var p model.Project
	decodeJSON(t, rr, &p)

	rr = env.do(t, "GET", "/api/projects/"+p.Slug, nil, nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/projects?featured=true", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	var list []model.Project
	decodeJSON(t, rr, &list)
	if len(list) != 1 {
		t.Errorf("featured projects = %d, want 1", len(list))
	}

	rr = env.doAuth(t, "DELETE", "/api/projects/"+p.ID, nil, token)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/projects/"+p.ID, nil, nil)
	assertError(t, rr, http.StatusNotFound, "Project not found")
}

func TestContactFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.do(t, "POST", "/api/contact", jsonBody(t, map[string]string{
		"name": "Visitor", "email": "visitor@example.com", "message": "Hi!",
	}), nil)
	assertStatus(t, rr, http.StatusCreated)

	rr = env.doAuth(t, "GET", "/api/contact/messages", nil, token)
	assertStatus(t, rr, http.StatusOK)
	var msgs []model.ContactMessage
	decodeJSON(t, rr, &msgs)
	if len(msgs) != 1 || msgs[0].Status != model.StatusPending {
		t.Fatalf("messages = %+v", msgs)
	}

	rr = env.doAuth(t, "PATCH", "/api/contact/"+msgs[0].ID, jsonBody(t, map[string]string{"status": "replied"}), token)
	assertStatus(t, rr, http.StatusOK)
}

func TestContact_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContactLimit = 1
	env := newTestEnvWithConfig(t, cfg)

	body := map[string]string{"name": "V", "email": "v@example.com", "message": "one"}
	rr := env.do(t, "POST", "/api/contact", jsonBody(t, body), nil)
	assertStatus(t, rr, http.StatusCreated)

	rr = env.do(t, "POST", "/api/contact", jsonBody(t, body), nil)
	assertStatus(t, rr, http.StatusTooManyRequests)
}

func TestAdminLogin_RateLimitIgnoresForwardedFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginLimit = 3
	env := newTestEnvWithConfig(t, cfg)
	env.seedAdmin(t)

	limited := 0
	for i := 0; i < 20; i++ {
		body := jsonBody(t, map[string]string{"email": testEmail, "password": "wrong"})
		rr := env.do(t, "POST", "/api/admin/login", body, map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.%d.%d", i/250, i%250+1),
			"X-Real-IP":       fmt.Sprintf("10.1.0.%d", i+1),
		})
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 17 {
		t.Errorf("limited %d of 20 logins with rotating forwarded headers, want 17", limited)
	}
}

func TestAdminLogin_TrustedProxyUsesForwardedFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginLimit = 1
	cfg.TrustedProxy = true
	env := newTestEnvWithConfig(t, cfg)
	env.seedAdmin(t)

	login := func(ip string) int {
		body := jsonBody(t, map[string]string{"email": testEmail, "password": "wrong"})
		return env.do(t, "POST", "/api/admin/login", body, map[string]string{"X-Forwarded-For": ip}).Code
	}
	if code := login("203.0.113.1"); code != http.StatusUnauthorized {
		t.Fatalf("first client: status = %d, want 401", code)
	}
	if code := login("203.0.113.2"); code != http.StatusUnauthorized {
		t.Errorf("second client: status = %d, want 401", code)
	}
	if code := login("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("first client again: status = %d, want 429", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/health", "/api/nope"} {
		rr := env.do(t, "GET", path, nil, nil)
		for header, want := range map[string]string{
			"X-Content-Type-Options": "nosniff",
			"X-Frame-Options":        "DENY",
			"Referrer-Policy":        "no-referrer",
		} {
			if got := rr.Header().Get(header); got != want {
				t.Errorf("%s: %s = %q, want %q", path, header, got, want)
			}
		}
	}
}

func TestChatbot(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/chatbot", jsonBody(t, map[string]string{"message": "what skills?"}), nil)
	assertStatus(t, rr, http.StatusOK)
	var reply model.ChatReply
	decodeJSON(t, rr, &reply)
	if reply.Intent != "skills" {
		t.Errorf("intent = %q, want skills", reply.Intent)
	}

	rr = env.do(t, "POST", "/api/chatbot", jsonBody(t, map[string]string{"message": ""}), nil)
	assertError(t, rr, http.StatusBadRequest, "Message required")
}

// ---------------------------------------------------------------------------
// Operational endpoints
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/health", nil, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.HealthResponse
	decodeJSON(t, rr, &resp)
	if resp.Status != "OK" || resp.Database != "Connected" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_StoreClosed(t *testing.T) {
	env := newTestEnv(t)
	env.store.Close()

	rr := env.do(t, "GET", "/api/health", nil, nil)
	assertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/does-not-exist", nil, nil)
	assertStatus(t, rr, http.StatusNotFound)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "Route not found" || resp.Path != "/api/does-not-exist" {
		t.Errorf("body = %+v", resp)
	}
}

func TestOpenAPISpec(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	assertContentType(t, rr, "application/json")

	var doc map[string]interface{}
	decodeJSON(t, rr, &doc)
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		t.Fatalf("paths missing from %v", doc)
	}
	if _, ok := paths["/api/admin/login"]; !ok {
		t.Error("expected /api/admin/login in spec")
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "OPTIONS", "/api/projects", nil, map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "POST",
	})
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestOriginHosts(t *testing.T) {
	got := originHosts([]string{"http://localhost:5173", "https://example.com/", ""})
	want := []string{"localhost:5173", "example.com"}
	if len(got) != len(want) {
		t.Fatalf("originHosts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("originHosts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := originHosts([]string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Errorf("wildcard = %v", got)
	}
}
