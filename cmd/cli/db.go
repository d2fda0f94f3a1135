package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/emart/internal/adapter/repository/postgres"
	"github.com/iho/emart/internal/infrastructure/config"
	"github.com/iho/emart/internal/infrastructure/postgres"
	"github.com/iho/emart/internal/usecase"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", cfg.MigrationsPath, "Directory holding migration files")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrations(cfg.DatabaseURL, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrationsDown(cfg.DatabaseURL, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			},
		},
	)

	return cmd
}

func seedCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default companies and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
				DatabaseURL:     cfg.DatabaseURL,
				MaxConns:        2,
				MinConns:        1,
				ConnectAttempts: cfg.DatabaseConnectAttempts,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			catalogUC := usecase.NewCatalogUseCase(
				postgresRepo.NewCompanyRepository(pool),
				postgresRepo.NewCategoryRepository(pool),
			)

			added, err := catalogUC.SeedDefaults(ctx)
			if err != nil {
				return err
			}

			log.Info().Int("added", added).Msg("catalog seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "added %d companies and categories\n", added)
			return nil
		},
	}
}
