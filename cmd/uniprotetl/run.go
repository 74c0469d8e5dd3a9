package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nishad/uniprotetl/internal/acquirer"
	"github.com/nishad/uniprotetl/internal/loader"
	"github.com/nishad/uniprotetl/internal/pipeline"
	"github.com/nishad/uniprotetl/internal/progress"
)

var (
	runMode       string
	runDataset    string
	runNumWorkers int
	runNoProgress bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ETL load",
		Long: `Run transforms the configured dataset(s) from UniProt XML into TSV and
loads them into PostgreSQL, either replacing the production schema
wholesale (full) or merging into it (delta).`,
		RunE: runRun,
	}

	cmd.Flags().StringVar(&runMode, "mode", loader.ModeFull, "load mode: full or delta")
	cmd.Flags().StringVar(&runDataset, "dataset", "all", "dataset: swissprot, trembl, or all")
	cmd.Flags().IntVar(&runNumWorkers, "workers", 0, "parser worker count (0 uses the config default)")
	cmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable progress output")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\ninterrupted, cancelling run...")
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runNumWorkers > 0 {
		cfg.NumWorkers = runNumWorkers
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
	if err := adapter.CheckConnection(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	acq := acquirer.NewLocalAcquirer(cfg.DataDir)

	var report progress.Func
	if !runNoProgress {
		report = printProgress
	}

	fmt.Printf("mode=%s dataset=%s profile=%s workers=%d\n", runMode, runDataset, cfg.Profile, cfg.NumWorkers)

	start := time.Now()
	result, err := pipeline.Run(ctx, pipeline.Options{
		Mode:       runMode,
		Dataset:    runDataset,
		Profile:    cfg.Profile,
		NumWorkers: cfg.NumWorkers,
		DataDir:    cfg.DataDir,
		ScratchDir: cfg.ScratchDir,
		Acquirer:   acq,
		Adapter:    adapter,
		Report:     report,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printRunSummary(result, time.Since(start))
	return nil
}

func printProgress(s progress.Snapshot) {
	if s.EntriesParsed%10000 != 0 {
		return
	}
	fmt.Printf("\r%d/%d entries (%.1f%%, %.0f/s)", s.EntriesParsed, s.TotalEntries, s.PercentComplete, s.EntriesPerSec)
}

func printRunSummary(r pipeline.Result, elapsed time.Duration) {
	fmt.Printf("\nrun %s completed in %s, version %s\n", r.RunID, elapsed.Round(time.Second), r.Version)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "dataset\tparsed\tdropped\ttaxonomy deduped\n")
	for _, d := range r.Datasets {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.Dataset, d.Stats.EntriesParsed, d.Stats.EntriesDropped, d.Stats.TaxonomyDeduped)
	}
	w.Flush()
}
