package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nishad/uniprotetl/internal/loader"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Pre-provision the production schema before the first load",
		Long: `init creates the production schema and its tables if they don't
already exist. A full load creates them itself via the schema swap, and a
first-time delta load creates them lazily, so this is only needed for an
operator who wants production provisioned ahead of the first run.`,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	adapter, err := loader.NewPostgresAdapter(pool, cfg.Database.StagingSchema, cfg.Database.ProductionSchema)
	if err != nil {
		return fmt.Errorf("configuring loader: %w", err)
	}

	if err := adapter.EnsureProductionSchema(ctx); err != nil {
		return fmt.Errorf("provisioning production schema: %w", err)
	}
	fmt.Printf("%s: production schema ready\n", cfg.Database.ProductionSchema)
	return nil
}
