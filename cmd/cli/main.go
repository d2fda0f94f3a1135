package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iho/emart/internal/infrastructure/config"
	"github.com/iho/emart/internal/infrastructure/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "emart-cli",
		Short:        "E-Mart CLI tool",
		Long:         `A command line interface for operating the E-Mart database and API.`,
		SilenceUsage: true,
	}

	api := &apiClient{}
	rootCmd.PersistentFlags().StringVar(&api.baseURL, "url", cfg.APIURL, "Base URL of the E-Mart API")
	rootCmd.PersistentFlags().StringVar(&api.token, "token", cfg.APIToken, "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&api.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		migrateCmd(cfg),
		seedCmd(cfg),
		tokenCmd(cfg),
		dashboardCmd(api),
		planCmd(api),
	)

	return rootCmd
}
