package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/service"
)

// loadSettings merges the config file, environment and flags into one
// YAMLConfig. The file is read first; any key set through viper (env or
// flag) then overrides it.
func loadSettings() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()
	if path := viper.ConfigFileUsed(); path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := config.LoadYAMLConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = fileCfg
		}
	}

	overrideString(&cfg.Server.Host, "server.host")
	overrideInt(&cfg.Server.Port, "server.port")
	overrideString(&cfg.Server.ShutdownTimeout, "server.shutdown_timeout")
	if viper.IsSet("server.trusted_proxy") {
		cfg.Server.TrustedProxy = viper.GetBool("server.trusted_proxy")
	}
	if viper.IsSet("server.cors_origins") {
		cfg.Server.CORSOrigins = splitList(viper.Get("server.cors_origins"))
	}
	if frontend := strings.TrimSpace(os.Getenv("FRONTEND_URL")); frontend != "" {
		cfg.Server.CORSOrigins = appendUnique(cfg.Server.CORSOrigins, frontend)
	}

	overrideString(&cfg.Auth.JWTSecret, "auth.jwt_secret")
	overrideString(&cfg.Auth.AdminEmail, "auth.admin_email")
	overrideString(&cfg.Auth.AdminPassword, "auth.admin_password")

	overrideString(&cfg.Database.Driver, "database.driver")
	overrideString(&cfg.Database.DSN, "database.dsn")

	overrideString(&cfg.Site.OwnerName, "site.owner_name")
	overrideString(&cfg.Site.OwnerEmail, "site.owner_email")

	overrideString(&cfg.Notify.PostmarkToken, "notify.postmark_token")
	overrideString(&cfg.Notify.From, "notify.from")
	overrideString(&cfg.Notify.To, "notify.to")
	overrideString(&cfg.Notify.RedisAddr, "notify.redis_addr")
	overrideString(&cfg.Notify.RedisQueue, "notify.redis_queue")

	overrideString(&cfg.MCP.Transport, "mcp.transport")
	overrideInt(&cfg.MCP.Port, "mcp.port")

	overrideString(&cfg.Logging.Level, "logging.level")
	overrideString(&cfg.Logging.Format, "logging.format")

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func overrideInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

// splitList accepts a YAML list or a comma-separated string.
func splitList(v interface{}) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []interface{}:
		for _, item := range t {
			raw = append(raw, fmt.Sprint(item))
		}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// newLogger builds the process logger. dev forces debug level.
func newLogger(cfg config.LoggingConfig, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the configured store. SQLite without a DSN lives in the
// data directory.
func openStore(cfg config.DatabaseConfig) (*config.Store, error) {
	if (cfg.Driver == "" || cfg.Driver == config.DriverSQLite) && cfg.DSN == "" {
		return config.NewStore(resolveDataDir())
	}
	return config.Open(cfg.Driver, cfg.DSN)
}

// buildChatbot uses the configured intents when present, otherwise the
// built-in ones.
func buildChatbot(cfg *config.YAMLConfig) *service.Chatbot {
	intents := service.DefaultIntents(cfg.Site.OwnerName)
	if len(cfg.Chatbot.Intents) > 0 {
		intents = make([]service.Intent, 0, len(cfg.Chatbot.Intents))
		for _, in := range cfg.Chatbot.Intents {
			intents = append(intents, service.Intent{Name: in.Name, Keywords: in.Keywords, Replies: in.Replies})
		}
	}
	fallback := service.DefaultFallback(cfg.Site.OwnerName)
	if len(cfg.Chatbot.DefaultReplies) > 0 {
		fallback = cfg.Chatbot.DefaultReplies
	}
	return service.NewChatbot(intents, fallback)
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	d, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// redact hides all but the last four characters of a secret.
func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// redactDSN masks the password in a URL DSN (postgres://user:pw@host) or a
// MySQL DSN (user:pw@tcp(host)/db).
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return creds[:colon] + ":xxxxx" + dsn[at:]
	}
	return dsn
}
