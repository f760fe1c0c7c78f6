package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	fmcp "github.com/folioapp/folio/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that gives AI agents read-only
access to the portfolio: projects, testimonials and the chatbot.

In stdio mode the server speaks JSON-RPC over stdin/stdout, suitable for
desktop MCP clients. In http mode it serves the streamable HTTP transport.`,
		Example: `  folio mcp                             # stdio
  folio mcp --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	viper.BindPFlag("mcp.transport", cmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runMCP() error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	// stdout belongs to the protocol in stdio mode; logs go to stderr.
	logger := newLogger(cfg.Logging, false)

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	srv := fmcp.NewMCPServer(store, buildChatbot(cfg), versionString(), logger)

	switch cfg.MCP.Transport {
	case "stdio", "":
		return srv.ServeStdio()
	case "http":
		addr := fmt.Sprintf(":%d", cfg.MCP.Port)
		logger.Info("starting MCP HTTP server", "addr", addr)
		return srv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", cfg.MCP.Transport)
	}
}
