package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the Folio server is running",
		Long:  "Check the status of the Folio server, including process state and the health endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("Server is not running (no PID file found).")
		return nil
	}

	if !isProcessRunning(pid) {
		removePID()
		fmt.Println("Server is not running (stale PID file removed).")
		return nil
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	base := localServerURL(cfg.Server)
	api := client.New(base, client.NewMemoryStore(), client.WithTimeout(2*time.Second))

	health, err := api.Health(context.Background())
	if err != nil {
		fmt.Printf("Server process is running (PID %d) but the health check failed: %v\n", pid, err)
		fmt.Printf("  Logs: %s\n", logFilePath())
		return nil
	}

	fmt.Printf("Server is running (PID %d)\n", pid)
	fmt.Printf("  URL:      %s\n", base)
	fmt.Printf("  Health:   %s (database %s)\n", health.Status, health.Database)
	fmt.Printf("  Logs:     %s\n", logFilePath())
	return nil
}
