// Package transform implements the streaming UniProt XML to gzipped TSV
// pipeline: a producer that shards entries across parsing workers and a
// single writer that serializes results to the scratch directory.
package transform

// Table names, matching the TSV file stems and the Loader's staging tables.
const (
	TableTaxonomy          = "taxonomy"
	TableProteins          = "proteins"
	TableSequences         = "sequences"
	TableAccessions        = "accessions"
	TableGenes             = "genes"
	TableKeywords          = "keywords"
	TableProteinToGo       = "protein_to_go"
	TableProteinToTaxonomy = "protein_to_taxonomy"
)

// LoadOrder is the fixed parents-before-children table sequence the Loader
// must bulk_load in, so foreign keys are satisfiable mid-load.
var LoadOrder = []string{
	TableTaxonomy,
	TableProteins,
	TableSequences,
	TableAccessions,
	TableGenes,
	TableKeywords,
	TableProteinToGo,
	TableProteinToTaxonomy,
}

// TableHeaders gives the exact column order written as line 1 of each TSV,
// and read back by the Loader's COPY contract.
var TableHeaders = map[string][]string{
	TableProteins: {
		"primary_accession",
		"uniprot_id",
		"protein_name",
		"ncbi_taxid",
		"sequence_length",
		"molecular_weight",
		"created_date",
		"modified_date",
		"comments_data",
		"features_data",
		"db_references_data",
		"evidence_data",
	},
	TableSequences:         {"primary_accession", "sequence"},
	TableAccessions:        {"protein_accession", "secondary_accession"},
	TableTaxonomy:          {"ncbi_taxid", "scientific_name", "lineage"},
	TableGenes:             {"protein_accession", "gene_name", "is_primary"},
	TableProteinToGo:       {"protein_accession", "go_term_id"},
	TableKeywords:          {"protein_accession", "keyword_id", "keyword_label"},
	TableProteinToTaxonomy: {"protein_accession", "ncbi_taxid"},
}
