package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/folioapp/folio/internal/config"
)

// resetViper isolates a test from global viper state and the caller's
// environment.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, env := range []string{"JWT_SECRET", "ADMIN_EMAIL", "ADMIN_PASSWORD", "PORT", "DATABASE_URL", "FRONTEND_URL"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	resetViper(t)
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = "" })
	initConfig()

	cfg, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Database.Driver != config.DriverSQLite {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoadSettings_FileThenEnv(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "folio.yaml")
	data := []byte("server:\n  port: 7000\n  cors_origins: [\"https://a.example\"]\nauth:\n  jwt_secret: from-file\nsite:\n  owner_name: Ada\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })

	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("FRONTEND_URL", "https://b.example")
	initConfig()

	cfg, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want 7000 from file", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "legacy-secret" {
		t.Errorf("jwt secret = %q, want env override", cfg.Auth.JWTSecret)
	}
	if cfg.Site.OwnerName != "Ada" {
		t.Errorf("owner = %q", cfg.Site.OwnerName)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("cors origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoadSettings_PrefixedEnvWins(t *testing.T) {
	resetViper(t)
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = "" })

	t.Setenv("PORT", "6000")
	t.Setenv("FOLIO_SERVER_PORT", "6100")
	t.Setenv("FOLIO_SERVER_TRUSTED_PROXY", "true")
	initConfig()

	cfg, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if cfg.Server.Port != 6100 {
		t.Errorf("port = %d, want 6100", cfg.Server.Port)
	}
	if !cfg.Server.TrustedProxy {
		t.Error("trusted_proxy not taken from FOLIO_SERVER_TRUSTED_PROXY")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   interface{}
		want []string
	}{
		{" a, b ,,c", []string{"a", "b", "c"}},
		{[]string{"x", " "}, []string{"x"}},
		{[]interface{}{"y", "z"}, []string{"y", "z"}},
		{42, []string{}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRedact(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "****",
		"supersecret1": "****ret1",
	}
	for in, want := range tests {
		if got := redact(in); got != want {
			t.Errorf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://folio:hunter2@db:5432/folio", "postgres://folio:xxxxx@db:5432/folio"},
		{"folio:hunter2@tcp(db:3306)/folio", "folio:xxxxx@tcp(db:3306)/folio"},
		{"file:folio.db", "file:folio.db"},
	}
	for _, tt := range tests {
		if got := redactDSN(tt.in); got != tt.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShutdownTimeout(t *testing.T) {
	if got := shutdownTimeout(config.ServerConfig{ShutdownTimeout: "3s"}); got != 3*time.Second {
		t.Errorf("got %s, want 3s", got)
	}
	if got := shutdownTimeout(config.ServerConfig{ShutdownTimeout: "soon"}); got != 15*time.Second {
		t.Errorf("invalid value: got %s, want 15s", got)
	}
}

func TestLocalServerURL(t *testing.T) {
	if got := localServerURL(config.ServerConfig{Host: "0.0.0.0", Port: 5000}); got != "http://127.0.0.1:5000" {
		t.Errorf("got %q", got)
	}
	if got := localServerURL(config.ServerConfig{Host: "api.local", Port: 80}); got != "http://api.local:80" {
		t.Errorf("got %q", got)
	}
}

func TestBuildChatbot_ConfiguredIntents(t *testing.T) {
	cfg := config.DefaultYAMLConfig()
	cfg.Chatbot.Intents = []config.ChatIntentYAML{
		{Name: "pricing", Keywords: []string{"price"}, Replies: []string{"Rates on request."}},
	}
	cfg.Chatbot.DefaultReplies = []string{"Ask me about pricing."}

	bot := buildChatbot(cfg)
	reply, err := bot.Reply("what's the price?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Intent != "pricing" || reply.Response != "Rates on request." {
		t.Errorf("reply = %+v", reply)
	}
	reply, err = bot.Reply("hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Intent != "default" || reply.Response != "Ask me about pricing." {
		t.Errorf("fallback reply = %+v", reply)
	}
}
