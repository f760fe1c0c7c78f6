package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio/internal/client"
	"github.com/folioapp/folio/internal/config"
)

// localServerURL is where a server started from this config listens.
func localServerURL(cfg config.ServerConfig) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Port)
}

// apiClient builds a client for the client-side commands. The base URL is
// taken from --server, FOLIO_SERVER_URL, the saved session, and finally the
// local server address, in that order.
func apiClient() (*client.Client, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	sessions := client.NewFileStore(client.DefaultSessionPath(resolveDataDir()))

	base := serverURL
	if base == "" {
		base = os.Getenv("FOLIO_SERVER_URL")
	}
	if base == "" {
		if s, err := sessions.Load(); err == nil && s.BaseURL != "" {
			base = s.BaseURL
		}
	}
	if base == "" {
		base = localServerURL(cfg.Server)
	}

	return client.New(base, sessions,
		client.WithLogger(newLogger(cfg.Logging, false)),
		client.WithOnUnauthorized(func(_ *http.Response, clearErr error) {
			if clearErr != nil {
				fmt.Fprintf(os.Stderr, "Could not remove the stored session (%v); delete %s by hand.\n",
					clearErr, sessions.Path())
			}
			fmt.Fprintln(os.Stderr, "Session expired or revoked. Run 'folio login' to sign in again.")
		}),
	), nil
}

func newLoginCmd() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Folio server as an admin",
		Long: `Sign in and store the session token under the data directory
(session.json, readable only by you). Other client commands use it.`,
		Example: `  folio login --email admin@example.com
  folio login --server https://api.example.com --email admin@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = promptLine("Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password", false); err != nil {
					return err
				}
			}

			api, err := apiClient()
			if err != nil {
				return err
			}
			session, err := api.Login(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in to %s as %s\n", session.BaseURL, session.Admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			if err := api.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			if _, err := api.Session(); errors.Is(err, client.ErrNoSession) {
				return fmt.Errorf("not logged in; run 'folio login'")
			}
			admin, err := api.Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (%s) on %s\n", admin.Name, admin.Email, admin.Role, api.BaseURL())
			return nil
		},
	}
}

