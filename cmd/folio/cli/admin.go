package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/service"
)

// Admin commands work on the store directly, so they run on the host that
// owns the database and need no running server.
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create, list and remove the accounts that can edit portfolio content.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminDeleteCmd())
	cmd.AddCommand(newAdminResetPasswordCmd())

	return cmd
}

// withAuthService opens the configured store for the duration of fn.
func withAuthService(fn func(ctx context.Context, store *config.Store, auth *service.AuthService) error) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), store, service.NewAuthService(store, cfg.Auth.JWTSecret))
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  folio admin create --email admin@example.com --password secret123
  folio admin create --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword("Password", true)
				if err != nil {
					return err
				}
				password = pw
			}
			return withAuthService(func(ctx context.Context, _ *config.Store, auth *service.AuthService) error {
				admin, err := auth.CreateAdmin(ctx, email, password, name, role)
				if errors.Is(err, config.ErrConflict) {
					return fmt.Errorf("an admin with email %q already exists", email)
				}
				if err != nil {
					return err
				}
				fmt.Printf("Created admin %q (%s)\n", admin.Email, admin.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: derived from the email)")
	cmd.Flags().StringVar(&role, "role", model.RoleAdmin, "Role: admin or superadmin")
	cmd.MarkFlagRequired("email")

	return cmd
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(func(ctx context.Context, store *config.Store, _ *service.AuthService) error {
				admins, err := store.ListAdmins(ctx)
				if err != nil {
					return err
				}
				for i := range admins {
					admins[i] = admins[i].Public()
				}

				if jsonOutput {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(admins)
				}

				if len(admins) == 0 {
					fmt.Println("No admin accounts. Use 'folio admin create' to create one.")
					return nil
				}

				fmt.Printf("%-30s %-24s %-11s %-20s\n", "EMAIL", "NAME", "ROLE", "LAST LOGIN")
				fmt.Printf("%-30s %-24s %-11s %-20s\n", "-----", "----", "----", "----------")
				for _, a := range admins {
					last := "never"
					if a.LastLoginAt != nil {
						last = a.LastLoginAt.Local().Format(time.DateTime)
					}
					fmt.Printf("%-30s %-24s %-11s %-20s\n", a.Email, a.Name, a.Role, last)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// ---------- admin delete ----------

func newAdminDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <email>",
		Aliases: []string{"rm"},
		Short:   "Delete an admin account",
		Long: `Delete an admin account. Tokens already issued to it are rejected on their
next use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(func(ctx context.Context, store *config.Store, _ *service.AuthService) error {
				admin, err := store.GetAdminByEmail(ctx, args[0])
				if errors.Is(err, config.ErrNotFound) {
					return fmt.Errorf("no admin with email %q", args[0])
				}
				if err != nil {
					return err
				}
				if err := store.DeleteAdmin(ctx, admin.ID); err != nil {
					return err
				}
				fmt.Printf("Deleted admin %q\n", admin.Email)
				return nil
			})
		},
	}
}

// ---------- admin reset-password ----------

func newAdminResetPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Set a new password for an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword("New password", true)
				if err != nil {
					return err
				}
				password = pw
			}
			return withAuthService(func(ctx context.Context, _ *config.Store, auth *service.AuthService) error {
				err := auth.ResetPassword(ctx, args[0], password)
				if errors.Is(err, config.ErrNotFound) {
					return fmt.Errorf("no admin with email %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Printf("Password updated for %q\n", model.NormalizeEmail(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	return cmd
}
