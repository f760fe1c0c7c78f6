package cli

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	serverURL  string
	appVersion string // set in Execute, reported by serve, mcp and openapi
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Portfolio site backend and admin CLI",
		Long: `Folio serves the API behind a personal portfolio site: projects, testimonials,
a contact form with email notifications, and a small keyword chatbot.

The same binary manages the site from the terminal: create admin accounts,
log in against a running server, and edit content or triage messages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./folio.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store and session (default: ~/.folio)")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL for client commands (default: http://localhost:<server.port>)")

	cobra.OnInitialize(initConfig)

	// Server side
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	// Client side
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newTestimonialCmd())
	cmd.AddCommand(newMessagesCmd())
	cmd.AddCommand(newChatCmd())

	return cmd
}

// legacyEnv maps config keys to the unprefixed variables older deployments
// set. The FOLIO_ form always wins.
var legacyEnv = map[string]string{
	"auth.jwt_secret":     "JWT_SECRET",
	"auth.admin_email":    "ADMIN_EMAIL",
	"auth.admin_password": "ADMIN_PASSWORD",
	"server.port":         "PORT",
	"database.dsn":        "DATABASE_URL",
}

func initConfig() {
	// .env is optional; variables already in the environment are kept.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("folio")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.folio")
	}

	viper.SetEnvPrefix("FOLIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, env := range legacyEnv {
		viper.BindEnv(key, "FOLIO_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	viper.ReadInConfig() // Ignore error - config file is optional
}
