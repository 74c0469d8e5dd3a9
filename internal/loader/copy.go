package loader

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/nishad/uniprotetl/internal/errors"
)

// BulkLoad loads a gzipped TSV produced by the Transformer into the named
// staging table using pgx's CopyFrom — the Go equivalent of the COPY
// contract in §4.2: one transaction, the header row consumed but not
// inserted. All data rows of the file are read into memory before the copy
// starts; the file is not streamed row by row into the connection.
func (a *PostgresAdapter) BulkLoad(ctx context.Context, path, table string) error {
	target, err := qualify(a.stagingSchema, table)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}
	defer tx.Rollback(ctx)

	source := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return tsvRowToCopyArgs(rows[i]), nil
	})

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{a.stagingSchema, table}, header, source); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, fmt.Errorf("copy into %s: %w", target, err))
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.BulkLoad"), table, err)
	}
	return nil
}

// tsvRowToCopyArgs turns the empty-string-means-NULL convention (§6) into
// untyped nil so pgx's CopyFrom sends a real SQL NULL instead of "".
func tsvRowToCopyArgs(row []string) []any {
	args := make([]any, len(row))
	for i, v := range row {
		if v == "" {
			args[i] = nil
			continue
		}
		args[i] = v
	}
	return args
}

// DeduplicateStaging removes duplicate rows in a staging table by key,
// keeping the first row encountered physically (lowest ctid).
func (a *PostgresAdapter) DeduplicateStaging(ctx context.Context, table, key string) error {
	target, err := qualify(a.stagingSchema, table)
	if err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.DeduplicateStaging"), table, err)
	}

	query := fmt.Sprintf(`
		WITH numbered_rows AS (
			SELECT ctid, row_number() OVER (PARTITION BY %[2]s ORDER BY ctid) AS rn
			FROM %[1]s
		)
		DELETE FROM %[1]s
		WHERE ctid IN (SELECT ctid FROM numbered_rows WHERE rn > 1)`, target, key)

	if _, err := a.pool.Exec(ctx, query); err != nil {
		return apperrors.NewLoadError(apperrors.Op("loader.DeduplicateStaging"), table, err)
	}
	return nil
}
