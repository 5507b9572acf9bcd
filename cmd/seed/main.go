package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"deployment-portal/backend/internal/config"
	"deployment-portal/backend/internal/logging"
	"deployment-portal/backend/internal/repository"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "dmp-seed",
		Short: "Load the portal's sample records into PostgreSQL",
		Long: `dmp-seed creates the dmp_records table if needed and upserts the
built-in sample workflows, CAB requests, security tickets, uploads,
notifications and dashboard data. Running it twice is safe.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}

func seed(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	store := repository.NewPostgresSource(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	snap, err := repository.NewFixtureSource().Load(ctx)
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("sample records are inconsistent: %w", err)
	}
	if err := store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save records: %w", err)
	}

	logger.Info("Seeding complete",
		"workflows", len(snap.Workflows),
		"cab_requests", len(snap.CABRequests),
		"security_tickets", len(snap.SecurityTickets),
		"uploads", len(snap.Uploads),
		"notifications", len(snap.Notifications),
	)
	return nil
}
