// Package pipeline drives one ETL run end to end: version check, schema
// init, per-dataset transform+load, staging dedup, finalize, metadata
// update, and run logging, with cleanup guaranteed via defer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nishad/uniprotetl/internal/acquirer"
	apperrors "github.com/nishad/uniprotetl/internal/errors"
	"github.com/nishad/uniprotetl/internal/loader"
	"github.com/nishad/uniprotetl/internal/progress"
	"github.com/nishad/uniprotetl/internal/transform"
)

var validDatasets = map[string]bool{"swissprot": true, "trembl": true, "all": true}

// errEqualVersionNoOp marks the one halt that is a clean return, not a
// failure: the database already holds the version the source offers.
// core.py's run() simply `return`s in this branch without ever calling
// log_run, so neither a COMPLETED nor a FAILED load_history row is written.
var errEqualVersionNoOp = errors.New("database already at requested version, nothing to do")

// Options configures one call to Run.
type Options struct {
	Mode       string // loader.ModeFull or loader.ModeDelta
	Dataset    string // "swissprot", "trembl", or "all"
	Profile    string // parser.ProfileStandard or parser.ProfileFull
	NumWorkers int
	DataDir    string // where the dataset source XML files live
	ScratchDir string // parent of the per-dataset scratch directories
	Acquirer   acquirer.Acquirer
	Adapter    loader.Adapter
	Report     progress.Func
}

// DatasetResult is one dataset's transform statistics.
type DatasetResult struct {
	Dataset string
	Stats   transform.Stats
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	Version    string
	Datasets   []DatasetResult
	ArchivedAt *string // not set by Run: always nil, the archived schema name is not reported back
}

// Run executes the full pipeline. On any failure it records the run as
// FAILED in load_history via opts.Adapter.LogRun before returning the
// error; cleanup of the staging schema always runs, success or failure.
// The one exception is a delta that finds the database already at the
// source's version: that halt writes no load_history row at all and
// returns a nil error, since it isn't a failure.
func Run(ctx context.Context, opts Options) (Result, error) {
	runID := uuid.New().String()
	start := time.Now()

	if opts.Mode != loader.ModeFull && opts.Mode != loader.ModeDelta {
		return Result{}, apperrors.E(apperrors.Op("pipeline.Run"), apperrors.KindConfig,
			fmt.Sprintf("load mode %q is not valid, choose %q or %q", opts.Mode, loader.ModeFull, loader.ModeDelta))
	}
	if !validDatasets[opts.Dataset] {
		return Result{}, apperrors.E(apperrors.Op("pipeline.Run"), apperrors.KindConfig,
			fmt.Sprintf("dataset %q is not valid, choose swissprot, trembl, or all", opts.Dataset))
	}
	datasets := []string{opts.Dataset}
	if opts.Dataset == "all" {
		datasets = []string{"swissprot", "trembl"}
	}

	defer func() {
		apperrors.IgnoreError(opts.Adapter.Cleanup(ctx), "staging cleanup on exit")
	}()

	result, err := run(ctx, opts, runID, datasets)
	end := time.Now()

	if errors.Is(err, errEqualVersionNoOp) {
		return Result{}, nil
	}

	if err != nil {
		msg := err.Error()
		apperrors.IgnoreError(opts.Adapter.LogRun(ctx, runID, opts.Mode, opts.Dataset, "FAILED", start, end, &msg),
			"best-effort audit log while returning the primary failure")
		return result, err
	}
	if err := opts.Adapter.LogRun(ctx, runID, opts.Mode, opts.Dataset, "COMPLETED", start, end, nil); err != nil {
		return result, err
	}
	return result, nil
}

func run(ctx context.Context, opts Options, runID string, datasets []string) (Result, error) {
	release, err := opts.Acquirer.GetReleaseInfo(ctx)
	if err != nil {
		return Result{}, err
	}

	if opts.Mode == loader.ModeDelta {
		currentVersion, err := opts.Adapter.GetCurrentReleaseVersion(ctx)
		if err != nil {
			return Result{}, err
		}
		if currentVersion != nil {
			if *currentVersion == release.Version {
				return Result{}, errEqualVersionNoOp
			}
			if release.Version < *currentVersion {
				return Result{}, apperrors.E(apperrors.Op("pipeline.Run"), apperrors.KindVersion,
					fmt.Sprintf("source version %q is older than database version %q", release.Version, *currentVersion))
			}
		}
	}

	if err := opts.Adapter.InitializeSchema(ctx, opts.Mode); err != nil {
		return Result{}, err
	}

	skipped := apperrors.NewSkipCounter("pipeline.bulkLoadMissingTable")
	datasetResults := make([]DatasetResult, 0, len(datasets))
	for _, dataset := range datasets {
		stats, err := transformAndLoad(ctx, opts, dataset, runID, skipped)
		if err != nil {
			return Result{}, err
		}
		datasetResults = append(datasetResults, DatasetResult{Dataset: dataset, Stats: stats})
	}
	skipped.Report()

	for table, key := range loader.TablesWithUniqueConstraints {
		if err := opts.Adapter.DeduplicateStaging(ctx, table, key); err != nil {
			return Result{}, err
		}
	}

	if err := opts.Adapter.Finalize(ctx, opts.Mode); err != nil {
		return Result{}, err
	}

	if err := opts.Adapter.UpdateMetadata(ctx, release); err != nil {
		return Result{}, err
	}

	return Result{RunID: runID, Version: release.Version, Datasets: datasetResults}, nil
}

// transformAndLoad runs the Transformer for one dataset into its own scratch
// directory and bulk-loads every table it produced, skipping (with a
// warning, not a failure) any table the Transformer did not emit. skipped
// accumulates those misses so run() can report a single summary line
// instead of one per table per dataset.
func transformAndLoad(ctx context.Context, opts Options, dataset, runID string, skipped *apperrors.SkipCounter) (transform.Stats, error) {
	fileName, ok := acquirer.SourceFileNames[dataset]
	if !ok {
		return transform.Stats{}, apperrors.E(apperrors.Op("pipeline.transformAndLoad"), apperrors.KindConfig,
			fmt.Sprintf("unknown dataset %q", dataset))
	}
	sourcePath := filepath.Join(opts.DataDir, fileName)
	if _, err := os.Stat(sourcePath); err != nil {
		return transform.Stats{}, apperrors.E(apperrors.Op("pipeline.transformAndLoad"), apperrors.KindConfig,
			fmt.Errorf("source file not found for dataset %q: %w", dataset, err))
	}

	scratchDir := filepath.Join(opts.ScratchDir, fmt.Sprintf("%s_%s", runID, dataset))
	defer os.RemoveAll(scratchDir)

	stats, err := transform.Run(transform.Options{
		SourcePath: sourcePath,
		ScratchDir: scratchDir,
		Profile:    opts.Profile,
		NumWorkers: opts.NumWorkers,
		Report:     opts.Report,
	})
	if err != nil {
		return stats, err
	}

	for _, table := range loader.TableLoadOrder {
		tsvPath := filepath.Join(scratchDir, table+".tsv.gz")
		if _, err := os.Stat(tsvPath); err != nil {
			skipped.Skip(err, fmt.Sprintf("dataset=%s table=%s", dataset, table))
			continue
		}
		if err := opts.Adapter.BulkLoad(ctx, tsvPath, table); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
