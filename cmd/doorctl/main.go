// Command doorctl runs operator tasks against the doorline database: schema
// migrations, payout settlement and pool attribution. Intended for cron and
// manual runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/app"
	"github.com/doorline/backend/internal/config"
	"github.com/doorline/backend/internal/database"
	"github.com/doorline/backend/internal/logger"
	"github.com/doorline/backend/internal/middleware"
	"github.com/doorline/backend/internal/migrate"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "doorctl",
		Short:         "Operator tools for the doorline backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(settleCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(attributeCmd())
	rootCmd.AddCommand(jwtCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	boot, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	config.Init(boot)
	return logger.New(viper.GetString("app.env"))
}

// withApp builds the full service graph for one command run.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	zl, err := newLogger()
	if err != nil {
		return err
	}
	defer zl.Sync()

	a, err := app.New(cmd.Context(), zl)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			zl, err := newLogger()
			if err != nil {
				return err
			}
			defer zl.Sync()

			db, err := database.Open(cmd.Context(), zl)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate.Up(cmd.Context(), db); err != nil {
				return err
			}
			zl.Info("migrations applied")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			zl, err := newLogger()
			if err != nil {
				return err
			}
			defer zl.Sync()

			db, err := database.Open(cmd.Context(), zl)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrate.Status(cmd.Context(), db)
		},
	})

	return cmd
}

func settleCmd() *cobra.Command {
	var requestID string

	cmd := &cobra.Command{
		Use:   "settle [beneficiaryId]",
		Short: "Pay out one beneficiary's unpaid balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Payouts.Settle(ctx, args[0], requestID)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}

	cmd.Flags().StringVar(&requestID, "request-id", "", "payout attempt id; repeating it returns the original transfer")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Settle every beneficiary with a positive unpaid balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				results, err := a.Payouts.Sweep(ctx)
				if err != nil {
					return err
				}
				if err := printJSON(cmd, results); err != nil {
					return err
				}
				for _, r := range results {
					if r.Error != "" {
						return fmt.Errorf("sweep finished with failures")
					}
				}
				return nil
			})
		},
	}
}

func attributeCmd() *cobra.Command {
	var due bool

	cmd := &cobra.Command{
		Use:   "attribute [distributionId]",
		Short: "Allocate a closed pass's pool share to visited venues",
		Args: func(cmd *cobra.Command, args []string) error {
			if due {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				ids := args
				if due {
					var err error
					if ids, err = a.Pool.DueDistributions(ctx); err != nil {
						return err
					}
				}
				failed := 0
				for _, id := range ids {
					result, err := a.Pool.Attribute(ctx, id)
					if err != nil {
						a.Logger.Error("attribution failed", zap.String("distribution_id", id), zap.Error(err))
						failed++
						continue
					}
					if err := printJSON(cmd, result); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d attributions failed", failed, len(ids))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&due, "due", false, "attribute every distribution whose pass window has closed")
	return cmd
}

func jwtCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Mint a bearer token for a device, till or operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newLogger(); err != nil {
				return err
			}
			secret := viper.GetString("jwt.secret_key")
			if secret == "" {
				return fmt.Errorf("jwt.secret_key is not set")
			}
			switch middleware.Role(role) {
			case middleware.RoleOperator, middleware.RoleDevice, middleware.RolePOS, middleware.RoleMember:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			now := time.Now()
			tok, err := middleware.IssueToken([]byte(secret), subject, middleware.Role(role), jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "caller id placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", string(middleware.RoleOperator), "operator, device, pos or member")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
