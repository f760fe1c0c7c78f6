package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/notify"
	"github.com/folioapp/folio/internal/server"
	"github.com/folioapp/folio/internal/service"
)

const banner = `
  __       _ _
 / _| ___ | (_) ___
| |_ / _ \| | |/ _ \
|  _| (_) | | | (_) |
|_|  \___/|_|_|\___/
`

func newServeCmd() *cobra.Command {
	var (
		port   int
		host   string
		dev    bool
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portfolio API server",
		Long: `Start the HTTP server for the portfolio API.

A JWT signing secret is required (auth.jwt_secret, FOLIO_AUTH_JWT_SECRET or
JWT_SECRET). With --dev an ephemeral secret is generated, so tokens stop
working when the server restarts.

If auth.admin_email and auth.admin_password are set and no account with
that email exists, it is created on startup.`,
		Example: `  folio serve --dev
  JWT_SECRET=... folio serve --port 8080
  folio serve --daemon   # detach; use 'folio status' and 'folio stop'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemon {
				return startDaemon()
			}
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5000, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, ephemeral JWT secret, CORS *)")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Run the server in the background")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, dev)
	ctx := context.Background()

	// 1. JWT secret
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		if !dev {
			return fmt.Errorf("no JWT secret configured: set JWT_SECRET or FOLIO_AUTH_JWT_SECRET (or use --dev)")
		}
		jwtSecret, err = ephemeralSecret()
		if err != nil {
			return err
		}
		logger.Warn("using an ephemeral JWT secret; tokens will not survive a restart")
	}

	// 2. Store
	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	logger.Info("store initialized", "driver", store.Driver())

	authSvc := service.NewAuthService(store, jwtSecret)

	// 3. Bootstrap admin
	if err := bootstrapAdmin(ctx, authSvc, store, cfg.Auth, logger); err != nil {
		store.Close()
		return err
	}

	// 4. Contact notifications
	notifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return err
	}

	// 5. HTTP server
	origins := cfg.Server.CORSOrigins
	if dev {
		origins = appendUnique(origins, "*")
	}
	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.ShutdownTimeout = shutdownTimeout(cfg.Server)
	srvCfg.CORSOrigins = origins
	srvCfg.TrustedProxy = cfg.Server.TrustedProxy
	srvCfg.Version = versionString()

	srv, err := server.New(srvCfg, store, authSvc, buildChatbot(cfg), notifier, logger)
	if err != nil {
		store.Close()
		return err
	}

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	fmt.Print(banner)
	fmt.Println()
	fmt.Printf("→ Folio %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Health:     http://%s:%d/api/health\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Store:      %s\n", store.Driver())
	fmt.Println()

	return srv.ListenAndServe()
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func bootstrapAdmin(ctx context.Context, authSvc *service.AuthService, store *config.Store, auth config.AuthConfig, logger *slog.Logger) error {
	if auth.AdminEmail != "" && auth.AdminPassword != "" {
		created, err := authSvc.EnsureAdmin(ctx, auth.AdminEmail, auth.AdminPassword, "")
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("created admin account", "email", auth.AdminEmail)
		}
		return nil
	}

	hasAdmin, err := store.HasAnyAdmin(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	} else if !hasAdmin {
		logger.Warn("no admin account found - run: folio admin create")
	}
	return nil
}

// buildNotifier wires Postmark delivery behind an in-process or Redis
// queue. It returns nil when no Postmark token is configured.
func buildNotifier(ctx context.Context, cfg *config.YAMLConfig, logger *slog.Logger) (*notify.Notifier, error) {
	if cfg.Notify.PostmarkToken == "" {
		logger.Info("contact notifications disabled (no postmark token)")
		return nil, nil
	}
	to := cfg.Notify.To
	if to == "" {
		to = cfg.Site.OwnerEmail
	}
	if to == "" {
		logger.Warn("contact notifications disabled (no notify.to or site.owner_email)")
		return nil, nil
	}
	from := cfg.Notify.From
	if from == "" {
		from = to
	}

	var queue notify.Queue
	if cfg.Notify.RedisAddr != "" {
		rq, err := notify.NewRedisQueue(ctx, cfg.Notify.RedisAddr, cfg.Notify.RedisQueue)
		if err != nil {
			return nil, fmt.Errorf("connect notification queue: %w", err)
		}
		queue = rq
		logger.Info("contact notifications queued in redis", "addr", cfg.Notify.RedisAddr, "key", cfg.Notify.RedisQueue)
	} else {
		queue = notify.NewChannelQueue(100)
	}

	sender := notify.NewPostmarkClient(cfg.Notify.PostmarkToken, from)
	return notify.NewNotifier(queue, sender, to, logger), nil
}

// startDaemon re-runs serve without --daemon in a detached child process
// whose output goes to the log file.
func startDaemon() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a != "--daemon" && a != "--daemon=true" {
			args = append(args, a)
		}
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	fmt.Printf("Folio server started in the background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	return child.Process.Release()
}
