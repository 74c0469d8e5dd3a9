// Package loader implements the transactional bulk-load / schema-swap /
// delta-merge protocol against PostgreSQL: staging schema initialization,
// COPY-based bulk load of the Transformer's TSVs, and finalize via either
// an atomic schema rename (full load) or an upsert+sync+tombstone merge
// (delta load).
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/nishad/uniprotetl/internal/errors"
)

// undefinedRelation holds the Postgres SQLSTATE codes GetCurrentReleaseVersion
// treats as "production schema or metadata table not created yet": undefined
// table and invalid (nonexistent) schema.
var undefinedRelation = map[string]bool{
	"42P01": true, // undefined_table
	"3F000": true, // invalid_schema_name
}

// ReleaseInfo is what the Acquirer reports about one release and what
// UpdateMetadata persists.
type ReleaseInfo struct {
	Version              string
	ReleaseDate          string
	SwissProtEntryCount  int
	TremblEntryCount     int
}

// Adapter is the loader's public contract. A PostgreSQL implementation is
// the reference; any backend satisfying the COPY contract (§4.2) can
// implement it.
type Adapter interface {
	CheckConnection(ctx context.Context) error
	EnsureProductionSchema(ctx context.Context) error
	InitializeSchema(ctx context.Context, mode string) error
	BulkLoad(ctx context.Context, path, table string) error
	DeduplicateStaging(ctx context.Context, table, key string) error
	Finalize(ctx context.Context, mode string) error
	UpdateMetadata(ctx context.Context, info ReleaseInfo) error
	LogRun(ctx context.Context, runID, mode, dataset, status string, start, end time.Time, errMsg *string) error
	GetCurrentReleaseVersion(ctx context.Context) (*string, error)
	Cleanup(ctx context.Context) error
}

const (
	ModeFull  = "full"
	ModeDelta = "delta"
)

// TableLoadOrder is the fixed parents-before-children sequence bulk_load
// must follow so foreign keys are satisfiable mid-load.
var TableLoadOrder = []string{
	"taxonomy",
	"proteins",
	"sequences",
	"accessions",
	"genes",
	"keywords",
	"protein_to_go",
	"protein_to_taxonomy",
}

// TablesWithUniqueConstraints names every staging table that needs the
// post-load dedup pass, keyed by its natural key.
var TablesWithUniqueConstraints = map[string]string{
	"taxonomy": "ncbi_taxid",
}

// PostgresAdapter is the reference Adapter implementation.
type PostgresAdapter struct {
	pool             *pgxpool.Pool
	stagingSchema    string
	productionSchema string
}

// NewPostgresAdapter wraps an already-open pool. Callers own pool lifetime.
func NewPostgresAdapter(pool *pgxpool.Pool, stagingSchema, productionSchema string) (*PostgresAdapter, error) {
	if err := ValidateSchemaName(stagingSchema); err != nil {
		return nil, err
	}
	if err := ValidateSchemaName(productionSchema); err != nil {
		return nil, err
	}
	return &PostgresAdapter{pool: pool, stagingSchema: stagingSchema, productionSchema: productionSchema}, nil
}

func (a *PostgresAdapter) CheckConnection(ctx context.Context) error {
	var one int
	if err := a.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return apperrors.E(apperrors.Op("loader.CheckConnection"), apperrors.KindIO, err)
	}
	return nil
}

// InitializeSchema drops and recreates the staging schema empty. Same DDL
// for both modes; delta's production-side DDL is created lazily in
// finalize, first-time delta is permitted.
func (a *PostgresAdapter) InitializeSchema(ctx context.Context, mode string) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.InitializeSchema"), "", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", a.stagingSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.InitializeSchema"), "", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", a.stagingSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.InitializeSchema"), "", err)
	}
	if _, err := tx.Exec(ctx, schemaDDL(a.stagingSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.InitializeSchema"), "", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.InitializeSchema"), "", err)
	}
	return nil
}

// Cleanup drops the staging schema, swallowing "does not exist" since it's
// called unconditionally from the pipeline driver's deferred cleanup.
func (a *PostgresAdapter) Cleanup(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", a.stagingSchema))
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.Cleanup"), "", err)
	}
	return nil
}

// UpdateMetadata truncates the single-row metadata table and inserts the
// new release record. The production schema and its metadata table are
// created first if absent, so this can run standalone in tests.
func (a *PostgresAdapter) UpdateMetadata(ctx context.Context, info ReleaseInfo) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.UpdateMetadata"), "uniprotetl_metadata", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", a.productionSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.UpdateMetadata"), "uniprotetl_metadata", err)
	}
	if _, err := tx.Exec(ctx, metadataDDL(a.productionSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.UpdateMetadata"), "uniprotetl_metadata", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s.uniprotetl_metadata", a.productionSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.UpdateMetadata"), "uniprotetl_metadata", err)
	}
	insert := fmt.Sprintf(`
		INSERT INTO %s.uniprotetl_metadata
			(version, release_date, swissprot_entry_count, trembl_entry_count, load_timestamp)
		VALUES ($1, $2, $3, $4, now())`, a.productionSchema)
	if _, err := tx.Exec(ctx, insert, info.Version, info.ReleaseDate, info.SwissProtEntryCount, info.TremblEntryCount); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.UpdateMetadata"), "uniprotetl_metadata", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.UpdateMetadata"), "uniprotetl_metadata", err)
	}
	return nil
}

// LogRun appends one row to the run-history table, the only durable
// cross-run state outside the protein data itself.
func (a *PostgresAdapter) LogRun(ctx context.Context, runID, mode, dataset, status string, start, end time.Time, errMsg *string) error {
	if _, err := a.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", a.productionSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.LogRun"), "load_history", err)
	}
	if _, err := a.pool.Exec(ctx, metadataDDL(a.productionSchema)); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.LogRun"), "load_history", err)
	}
	insert := fmt.Sprintf(`
		INSERT INTO %s.load_history (run_id, status, mode, dataset, start_time, end_time, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, a.productionSchema)
	if _, err := a.pool.Exec(ctx, insert, runID, status, mode, dataset, start, end, errMsg); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.LogRun"), "load_history", err)
	}
	return nil
}

// GetCurrentReleaseVersion returns nil, nil when the production schema or
// its metadata table doesn't exist yet — an absent version is a miss, not
// an error (§7). Any other backend error (a dropped connection, a
// permissions error) is real and must propagate, since the delta driver's
// version-ordering check depends on seeing it rather than silently treating
// it as "no prior release."
func (a *PostgresAdapter) GetCurrentReleaseVersion(ctx context.Context) (*string, error) {
	query := fmt.Sprintf(
		"SELECT version FROM %s.uniprotetl_metadata ORDER BY load_timestamp DESC LIMIT 1",
		a.productionSchema)

	var version string
	err := a.pool.QueryRow(ctx, query).Scan(&version)
	switch {
	case err == nil:
		return &version, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && undefinedRelation[pgErr.Code] {
		return nil, nil
	}
	return nil, apperrors.E(apperrors.Op("loader.GetCurrentReleaseVersion"), apperrors.KindIO, err)
}
