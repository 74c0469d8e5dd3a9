package loader

import "fmt"

// schemaDDL returns the full set of table definitions for one schema. Both
// staging and production use the same DDL; staging is just the production
// shape under a different name until a swap or merge promotes it.
func schemaDDL(schema string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s.taxonomy (
    ncbi_taxid INTEGER PRIMARY KEY,
    scientific_name TEXT,
    lineage TEXT
);

CREATE TABLE IF NOT EXISTS %[1]s.proteins (
    primary_accession TEXT PRIMARY KEY,
    uniprot_id TEXT,
    protein_name TEXT,
    ncbi_taxid INTEGER,
    sequence_length INTEGER,
    molecular_weight INTEGER,
    created_date TEXT,
    modified_date TEXT,
    comments_data JSONB,
    features_data JSONB,
    db_references_data JSONB,
    evidence_data JSONB
);

CREATE TABLE IF NOT EXISTS %[1]s.sequences (
    primary_accession TEXT PRIMARY KEY REFERENCES %[1]s.proteins(primary_accession) ON DELETE CASCADE,
    sequence TEXT
);

CREATE TABLE IF NOT EXISTS %[1]s.accessions (
    protein_accession TEXT REFERENCES %[1]s.proteins(primary_accession) ON DELETE CASCADE,
    secondary_accession TEXT,
    PRIMARY KEY (protein_accession, secondary_accession)
);

CREATE TABLE IF NOT EXISTS %[1]s.genes (
    protein_accession TEXT REFERENCES %[1]s.proteins(primary_accession) ON DELETE CASCADE,
    gene_name TEXT,
    is_primary BOOLEAN,
    PRIMARY KEY (protein_accession, gene_name)
);

CREATE TABLE IF NOT EXISTS %[1]s.keywords (
    protein_accession TEXT REFERENCES %[1]s.proteins(primary_accession) ON DELETE CASCADE,
    keyword_id TEXT,
    keyword_label TEXT,
    PRIMARY KEY (protein_accession, keyword_id)
);

CREATE TABLE IF NOT EXISTS %[1]s.protein_to_go (
    protein_accession TEXT REFERENCES %[1]s.proteins(primary_accession) ON DELETE CASCADE,
    go_term_id TEXT,
    PRIMARY KEY (protein_accession, go_term_id)
);

CREATE TABLE IF NOT EXISTS %[1]s.protein_to_taxonomy (
    protein_accession TEXT REFERENCES %[1]s.proteins(primary_accession) ON DELETE CASCADE,
    ncbi_taxid INTEGER REFERENCES %[1]s.taxonomy(ncbi_taxid),
    PRIMARY KEY (protein_accession, ncbi_taxid)
);
`, schema)
}

// indexDDL creates the secondary indexes called out by finalize's full-load
// path: B-tree lookups plus GIN indexes on the JSON blob columns.
func indexDDL(schema string) string {
	return fmt.Sprintf(`
CREATE INDEX IF NOT EXISTS idx_%[1]s_proteins_ncbi_taxid ON %[1]s.proteins (ncbi_taxid);
CREATE INDEX IF NOT EXISTS idx_%[1]s_accessions_secondary ON %[1]s.accessions (secondary_accession);
CREATE INDEX IF NOT EXISTS idx_%[1]s_protein_to_go_term ON %[1]s.protein_to_go (go_term_id);
CREATE INDEX IF NOT EXISTS idx_%[1]s_proteins_comments ON %[1]s.proteins USING GIN (comments_data);
CREATE INDEX IF NOT EXISTS idx_%[1]s_proteins_features ON %[1]s.proteins USING GIN (features_data);
CREATE INDEX IF NOT EXISTS idx_%[1]s_proteins_dbrefs ON %[1]s.proteins USING GIN (db_references_data);
CREATE INDEX IF NOT EXISTS idx_%[1]s_proteins_evidence ON %[1]s.proteins USING GIN (evidence_data);
`, schema)
}

// metadataDDL creates the two tables that carry durable cross-run state:
// the single-row release metadata table and the append-only run history.
func metadataDDL(schema string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s.uniprotetl_metadata (
    version TEXT PRIMARY KEY,
    release_date TEXT,
    load_timestamp TIMESTAMPTZ,
    swissprot_entry_count INTEGER,
    trembl_entry_count INTEGER
);

CREATE TABLE IF NOT EXISTS %[1]s.load_history (
    run_id TEXT PRIMARY KEY,
    status TEXT,
    mode TEXT,
    dataset TEXT,
    start_time TIMESTAMPTZ,
    end_time TIMESTAMPTZ,
    error_message TEXT
);
`, schema)
}
