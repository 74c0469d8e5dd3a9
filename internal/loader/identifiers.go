package loader

import (
	"fmt"
	"regexp"
)

// AllowedTables whitelists every table name the loader will ever interpolate
// into a query. bulk_load/deduplicate_staging/finalize all take a table name
// from calling code (ultimately the fixed load order in §4.2.3), never from
// untrusted input, but interpolating it into DDL/DML without a whitelist
// would still be a SQL-injection foot-gun the moment that assumption slips.
var AllowedTables = map[string]bool{
	"taxonomy":            true,
	"proteins":            true,
	"sequences":           true,
	"accessions":          true,
	"genes":               true,
	"keywords":            true,
	"protein_to_go":       true,
	"protein_to_taxonomy": true,
}

var validIdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrInvalidTableName is returned when a table name is not in the whitelist.
var ErrInvalidTableName = fmt.Errorf("invalid table name")

// ErrInvalidSchemaName is returned when a schema name fails identifier
// validation.
var ErrInvalidSchemaName = fmt.Errorf("invalid schema name")

// ValidateTableName checks table against the fixed table whitelist.
func ValidateTableName(table string) error {
	if !AllowedTables[table] {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return nil
}

// ValidateSchemaName checks that schema is a syntactically valid identifier.
// Schema names are not drawn from a fixed whitelist (they carry a generated
// timestamp/suffix for archived schemas) so this falls back to pattern
// validation rather than a literal set.
func ValidateSchemaName(schema string) error {
	if !validIdentifierPattern.MatchString(schema) {
		return fmt.Errorf("%w: %q", ErrInvalidSchemaName, schema)
	}
	return nil
}

// qualify returns "schema.table" after validating both parts.
func qualify(schema, table string) (string, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return "", err
	}
	if err := ValidateTableName(table); err != nil {
		return "", err
	}
	return schema + "." + table, nil
}
