package transform

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/nishad/uniprotetl/internal/parser"
)

func writeGzippedXML(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	doc := `<uniprot xmlns="http://uniprot.org/uniprot">` + body + `</uniprot>`
	if _, err := gz.Write([]byte(doc)); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func readGzippedTSV(t *testing.T, dir, table string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, table+".tsv.gz"))
	if err != nil {
		t.Fatalf("open %s: %v", table, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader %s: %v", table, err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll %s: %v", table, err)
	}
	return rows
}

const twoEntriesXML = `
<entry created="2020-01-01" modified="2020-01-01">
  <accession>P12345</accession>
  <accession>Q9Y5Y5</accession>
  <name>TEST1_HUMAN</name>
  <gene><name type="primary">TP1</name></gene>
  <organism>
    <name type="scientific">Homo sapiens</name>
    <dbReference type="NCBI Taxonomy" id="9606"/>
  </organism>
  <dbReference type="GO" id="GO:0005515"/>
  <keyword id="KW-0181">Complete proteome</keyword>
  <sequence length="10" mass="1111">MTESTSEQAA</sequence>
</entry>
<entry created="2020-01-01" modified="2020-01-01">
  <accession>P67890</accession>
  <organism>
    <name type="scientific">Mus musculus</name>
    <dbReference type="NCBI Taxonomy" id="10090"/>
  </organism>
  <sequence length="12" mass="2222">ABCDEFGHIJKL</sequence>
</entry>`

func TestRunSingleThreadedProducesExpectedRows(t *testing.T) {
	srcDir := t.TempDir()
	scratchDir := t.TempDir()
	src := writeGzippedXML(t, srcDir, "sprot.xml.gz", twoEntriesXML)

	stats, err := Run(Options{
		SourcePath: src,
		ScratchDir: scratchDir,
		Profile:    parser.ProfileStandard,
		NumWorkers: 1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.EntriesParsed != 2 {
		t.Errorf("EntriesParsed = %d, want 2", stats.EntriesParsed)
	}

	proteins := readGzippedTSV(t, scratchDir, TableProteins)
	if len(proteins) != 3 { // header + 2 rows
		t.Fatalf("proteins rows = %d, want 3", len(proteins))
	}

	taxonomy := readGzippedTSV(t, scratchDir, TableTaxonomy)
	if len(taxonomy) != 3 {
		t.Fatalf("taxonomy rows = %d, want 3", len(taxonomy))
	}

	accessions := readGzippedTSV(t, scratchDir, TableAccessions)
	if len(accessions) != 2 || accessions[1][0] != "P12345" || accessions[1][1] != "Q9Y5Y5" {
		t.Errorf("accessions = %v", accessions)
	}
}

func TestRunWorkerCountInvariance(t *testing.T) {
	srcDir := t.TempDir()
	src := writeGzippedXML(t, srcDir, "sprot.xml.gz", twoEntriesXML)

	single := t.TempDir()
	if _, err := Run(Options{SourcePath: src, ScratchDir: single, Profile: parser.ProfileStandard, NumWorkers: 1}); err != nil {
		t.Fatalf("Run(W=1): %v", err)
	}
	concurrent := t.TempDir()
	if _, err := Run(Options{SourcePath: src, ScratchDir: concurrent, Profile: parser.ProfileStandard, NumWorkers: 4}); err != nil {
		t.Fatalf("Run(W=4): %v", err)
	}

	for _, table := range LoadOrder {
		a := sortedRows(readGzippedTSV(t, single, table))
		b := sortedRows(readGzippedTSV(t, concurrent, table))
		if len(a) != len(b) {
			t.Errorf("table %s: row count differs between worker counts: %d vs %d", table, len(a), len(b))
			continue
		}
		for i := range a {
			if joinRow(a[i]) != joinRow(b[i]) {
				t.Errorf("table %s: row set differs between worker counts", table)
				break
			}
		}
	}
}

func sortedRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	body := rows[1:]
	sort.Slice(body, func(i, j int) bool { return joinRow(body[i]) < joinRow(body[j]) })
	return append(rows[:1:1], body...)
}

func joinRow(row []string) string {
	out := ""
	for _, f := range row {
		out += f + "\x1f"
	}
	return out
}

func TestRunDuplicatePrimaryAccessionIsFatal(t *testing.T) {
	srcDir := t.TempDir()
	scratchDir := t.TempDir()
	dup := `
<entry><accession>P12345</accession></entry>
<entry><accession>P12345</accession></entry>`
	src := writeGzippedXML(t, srcDir, "dup.xml.gz", dup)

	_, err := Run(Options{SourcePath: src, ScratchDir: scratchDir, Profile: parser.ProfileStandard, NumWorkers: 1})
	if err == nil {
		t.Fatal("expected error for duplicate primary accession")
	}
}

func TestRunEmptySourceSucceedsWithNoRows(t *testing.T) {
	srcDir := t.TempDir()
	scratchDir := t.TempDir()
	src := writeGzippedXML(t, srcDir, "empty.xml.gz", "")

	stats, err := Run(Options{SourcePath: src, ScratchDir: scratchDir, Profile: parser.ProfileStandard, NumWorkers: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.EntriesParsed != 0 {
		t.Errorf("EntriesParsed = %d, want 0", stats.EntriesParsed)
	}

	proteins := readGzippedTSV(t, scratchDir, TableProteins)
	if len(proteins) != 1 {
		t.Errorf("expected only the header row, got %d rows", len(proteins))
	}
}

func TestRunMissingOptionalChildrenLoadWithNulls(t *testing.T) {
	srcDir := t.TempDir()
	scratchDir := t.TempDir()
	src := writeGzippedXML(t, srcDir, "minimal.xml.gz", `<entry><accession>P00001</accession></entry>`)

	if _, err := Run(Options{SourcePath: src, ScratchDir: scratchDir, Profile: parser.ProfileStandard, NumWorkers: 1}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	proteins := readGzippedTSV(t, scratchDir, TableProteins)
	if len(proteins) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(proteins))
	}
	if proteins[1][3] != "" { // ncbi_taxid column
		t.Errorf("expected empty ncbi_taxid, got %q", proteins[1][3])
	}

	if rows := readGzippedTSV(t, scratchDir, TableSequences); len(rows) != 1 {
		t.Errorf("expected no sequence rows emitted, got %d", len(rows)-1)
	}
}
