package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nishad/uniprotetl/internal/loader"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current production release version",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	version, err := adapter.GetCurrentReleaseVersion(ctx)
	if err != nil {
		return fmt.Errorf("querying release version: %w", err)
	}
	if version == nil {
		fmt.Printf("%s: no release loaded\n", cfg.Database.ProductionSchema)
		return nil
	}
	fmt.Printf("%s: version %s\n", cfg.Database.ProductionSchema, *version)
	return nil
}
