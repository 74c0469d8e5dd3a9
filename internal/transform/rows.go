package transform

import (
	"strconv"

	"github.com/nishad/uniprotetl/internal/models"
)

// rowSet is the per-entry set of rows to append, keyed by table name, in
// the same shape as the original writer's per-table row lists.
type rowSet map[string][][]string

func rowsForEntry(e *models.Entry) rowSet {
	rows := make(rowSet, len(LoadOrder))

	p := e.Protein
	rows[TableProteins] = [][]string{{
		p.PrimaryAccession,
		p.UniProtID,
		p.ProteinName,
		intPtrField(p.NCBITaxID),
		strconv.Itoa(p.SequenceLength),
		strconv.Itoa(p.MolecularWeight),
		p.CreatedDate,
		p.ModifiedDate,
		strPtrField(p.CommentsData),
		strPtrField(p.FeaturesData),
		strPtrField(p.DBReferencesData),
		strPtrField(p.EvidenceData),
	}}

	if e.Sequence != nil {
		rows[TableSequences] = [][]string{{e.Sequence.PrimaryAccession, e.Sequence.Sequence}}
	}

	if len(e.Accessions) > 0 {
		acc := make([][]string, 0, len(e.Accessions))
		for _, a := range e.Accessions {
			acc = append(acc, []string{a.ProteinAccession, a.SecondaryAccession})
		}
		rows[TableAccessions] = acc
	}

	if e.Taxonomy != nil {
		rows[TableTaxonomy] = [][]string{{
			strconv.Itoa(e.Taxonomy.NCBITaxID),
			e.Taxonomy.ScientificName,
			e.Taxonomy.Lineage,
		}}
	}

	if e.ProteinToTaxonomy != nil {
		rows[TableProteinToTaxonomy] = [][]string{{
			e.ProteinToTaxonomy.ProteinAccession,
			strconv.Itoa(e.ProteinToTaxonomy.NCBITaxID),
		}}
	}

	if len(e.Genes) > 0 {
		genes := make([][]string, 0, len(e.Genes))
		for _, g := range e.Genes {
			genes = append(genes, []string{g.ProteinAccession, g.GeneName, boolField(g.IsPrimary)})
		}
		rows[TableGenes] = genes
	}

	if len(e.GoTerms) > 0 {
		goRows := make([][]string, 0, len(e.GoTerms))
		for _, g := range e.GoTerms {
			goRows = append(goRows, []string{g.ProteinAccession, g.GoTermID})
		}
		rows[TableProteinToGo] = goRows
	}

	if len(e.Keywords) > 0 {
		kw := make([][]string, 0, len(e.Keywords))
		for _, k := range e.Keywords {
			kw = append(kw, []string{k.ProteinAccession, k.KeywordID, k.KeywordLabel})
		}
		rows[TableKeywords] = kw
	}

	return rows
}

// boolField renders a bool the way the loader's COPY contract expects:
// Python's csv.writer default str() of a bool, not lowercase JSON.
func boolField(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func intPtrField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func strPtrField(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
