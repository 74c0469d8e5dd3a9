package parser

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/nishad/uniprotetl/internal/models"
)

// ProfileStandard collects only the comment types useful for a lightweight
// load; ProfileFull collects everything the entry carries.
const (
	ProfileStandard = "standard"
	ProfileFull     = "full"
)

var standardCommentTypes = map[string]bool{
	"function":             true,
	"disease":              true,
	"subcellular location": true,
}

var dbReferenceExcludedTypes = map[string]bool{
	"GO":             true,
	"NCBI Taxonomy": true,
}

// ParseEntry decodes one raw <entry> fragment (as produced by
// EntryDecoder.Next) into the row set the writer will emit. A missing
// primary accession is not an error: the caller drops the entry silently,
// matching the spec's "missing primary accession drops the entry" rule.
func ParseEntry(raw []byte, profile string) (*models.Entry, error) {
	var root Node
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}

	accessions := root.DirectChildren("accession")
	if len(accessions) == 0 {
		return nil, nil
	}
	primary := accessions[0].Text()
	if primary == "" {
		return nil, nil
	}

	entry := &models.Entry{
		Protein: models.Protein{
			PrimaryAccession: primary,
		},
	}

	if name, ok := root.DirectChild("name"); ok {
		entry.Protein.UniProtID = name.Text()
	}
	if created, ok := root.Attr("created"); ok {
		entry.Protein.CreatedDate = created
	}
	if modified, ok := root.Attr("modified"); ok {
		entry.Protein.ModifiedDate = modified
	}
	if proteinEl, ok := root.DirectChild("protein"); ok {
		if rec, ok := proteinEl.DirectChild("recommendedName"); ok {
			if full, ok := rec.DirectChild("fullName"); ok {
				entry.Protein.ProteinName = full.Text()
			}
		}
	}

	if seqEl, ok := root.DirectChild("sequence"); ok {
		if length, ok := seqEl.Attr("length"); ok {
			entry.Protein.SequenceLength, _ = strconv.Atoi(length)
		}
		if mass, ok := seqEl.Attr("mass"); ok {
			entry.Protein.MolecularWeight, _ = strconv.Atoi(mass)
		}
		if seq := strings.Join(strings.Fields(seqEl.Text()), ""); seq != "" {
			entry.Sequence = &models.Sequence{PrimaryAccession: primary, Sequence: seq}
		}
	}

	for _, acc := range accessions[1:] {
		if text := acc.Text(); text != "" {
			entry.Accessions = append(entry.Accessions, models.SecondaryAccession{
				ProteinAccession:   primary,
				SecondaryAccession: text,
			})
		}
	}

	if org, ok := root.DirectChild("organism"); ok {
		if taxID, sciName, lineage, ok := extractTaxonomy(org); ok {
			entry.Protein.NCBITaxID = &taxID
			entry.Taxonomy = &models.Taxonomy{
				NCBITaxID:      taxID,
				ScientificName: sciName,
				Lineage:        lineage,
			}
			entry.ProteinToTaxonomy = &models.ProteinToTaxonomy{
				ProteinAccession: primary,
				NCBITaxID:        taxID,
			}
		}
	}

	entry.Genes = extractGenes(root, primary)
	entry.GoTerms = extractGoTerms(root, primary)
	entry.Keywords = extractKeywords(root, primary)

	comments, features, dbRefs, evidence := extractProfileData(root, profile)
	var err error
	if entry.Protein.CommentsData, err = EncodeNodes(comments); err != nil {
		return nil, err
	}
	if profile == ProfileFull {
		if entry.Protein.FeaturesData, err = EncodeNodes(features); err != nil {
			return nil, err
		}
		if entry.Protein.DBReferencesData, err = EncodeNodes(dbRefs); err != nil {
			return nil, err
		}
		if entry.Protein.EvidenceData, err = EncodeNodes(evidence); err != nil {
			return nil, err
		}
	}

	return entry, nil
}

// extractTaxonomy finds organism/dbReference[@type="NCBI Taxonomy"] at any
// depth under <organism>, the scientific name, and the rendered lineage.
func extractTaxonomy(org Node) (taxID int, sciName string, lineage string, ok bool) {
	for _, ref := range org.FindAll("dbReference") {
		if t, _ := ref.Attr("type"); t != "NCBI Taxonomy" {
			continue
		}
		idStr, hasID := ref.Attr("id")
		if !hasID {
			continue
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		taxID = id
		ok = true
		break
	}
	if !ok {
		return 0, "", "", false
	}

	sciName = firstScientificOrFirstName(org)

	if lineageEl, hasLineage := org.DirectChild("lineage"); hasLineage {
		var taxa []string
		for _, taxon := range lineageEl.DirectChildren("taxon") {
			if text := taxon.Text(); text != "" {
				taxa = append(taxa, text)
			}
		}
		lineage = strings.Join(taxa, " > ")
	}

	return taxID, sciName, lineage, true
}

func firstScientificOrFirstName(org Node) string {
	names := org.DirectChildren("name")
	for _, n := range names {
		if t, _ := n.Attr("type"); t == "scientific" {
			return n.Text()
		}
	}
	if len(names) > 0 {
		return names[0].Text()
	}
	return ""
}

// extractGenes marks the first name with type="primary" as the gene's
// primary name; further primary names, synonyms, and ordered-locus names
// are all non-primary.
func extractGenes(root Node, primaryAccession string) []models.Gene {
	var genes []models.Gene
	for _, geneEl := range root.DirectChildren("gene") {
		sawPrimary := false
		for _, nameEl := range geneEl.DirectChildren("name") {
			nameType, _ := nameEl.Attr("type")
			geneName := nameEl.Text()
			switch nameType {
			case "primary":
				isPrimary := !sawPrimary
				sawPrimary = true
				genes = append(genes, models.Gene{
					ProteinAccession: primaryAccession,
					GeneName:         geneName,
					IsPrimary:        isPrimary,
				})
			case "synonym", "ordered locus":
				genes = append(genes, models.Gene{
					ProteinAccession: primaryAccession,
					GeneName:         geneName,
					IsPrimary:        false,
				})
			}
		}
	}
	return genes
}

// extractGoTerms searches the whole entry subtree (not just direct
// children) for dbReference elements of type GO.
func extractGoTerms(root Node, primaryAccession string) []models.ProteinToGo {
	var goTerms []models.ProteinToGo
	for _, ref := range root.FindAll("dbReference") {
		if t, _ := ref.Attr("type"); t != "GO" {
			continue
		}
		if id, ok := ref.Attr("id"); ok && id != "" {
			goTerms = append(goTerms, models.ProteinToGo{ProteinAccession: primaryAccession, GoTermID: id})
		}
	}
	return goTerms
}

func extractKeywords(root Node, primaryAccession string) []models.Keyword {
	var keywords []models.Keyword
	for _, kwEl := range root.DirectChildren("keyword") {
		id, ok := kwEl.Attr("id")
		if !ok || id == "" {
			continue
		}
		keywords = append(keywords, models.Keyword{
			ProteinAccession: primaryAccession,
			KeywordID:        id,
			KeywordLabel:     kwEl.Text(),
		})
	}
	return keywords
}

// extractProfileData returns the raw element sets for the four JSON blob
// columns, gated by profile exactly as spec.md §4.1 describes.
func extractProfileData(root Node, profile string) (comments, features, dbRefs, evidence []Node) {
	allComments := root.DirectChildren("comment")
	if profile == ProfileFull {
		comments = allComments
		features = root.DirectChildren("feature")
		for _, ref := range root.DirectChildren("dbReference") {
			t, _ := ref.Attr("type")
			if !dbReferenceExcludedTypes[t] {
				dbRefs = append(dbRefs, ref)
			}
		}
		evidence = root.FindAll("evidence")
		return
	}

	for _, c := range allComments {
		if t, _ := c.Attr("type"); standardCommentTypes[t] {
			comments = append(comments, c)
		}
	}
	return
}
