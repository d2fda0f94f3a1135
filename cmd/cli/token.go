package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/infrastructure/auth"
	"github.com/iho/emart/internal/infrastructure/config"
)

func tokenCmd(cfg *config.Config) *cobra.Command {
	var (
		username string
		role     string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, ttl).Generate(username, domain.Role(role))
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "Operator name stored in the token")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCashier), "Role: admin, cashier or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.JWTExpiration, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
