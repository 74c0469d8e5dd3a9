package transform

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	apperrors "github.com/nishad/uniprotetl/internal/errors"
	"github.com/nishad/uniprotetl/internal/models"
	"github.com/nishad/uniprotetl/internal/parser"
	"github.com/nishad/uniprotetl/internal/progress"
)

// errMissingPrimaryAccession is the reason recorded against every entry
// ParseEntry drops (§4.1's "missing primary accession drops the entry"
// rule). It never reaches a caller as a failure; it's only the detail
// string the run's RowScanner reports at the end.
var errMissingPrimaryAccession = errors.New("entry has no primary accession")

// Options configures one transformer run.
type Options struct {
	SourcePath string // gzipped UniProt XML file
	ScratchDir string // destination for <table>.tsv.gz files
	Profile    string // parser.ProfileStandard or parser.ProfileFull
	NumWorkers int    // 1 selects the single-threaded path
	Report     progress.Func
}

// Stats summarizes one completed run.
type Stats struct {
	EntriesParsed   int64
	EntriesDropped  int64
	TaxonomyDeduped int64
}

// workResult is what a worker goroutine hands back to the writer: either a
// successfully parsed entry, or the error it hit trying to parse one.
type workResult struct {
	entry *models.Entry
	err   error
}

// Run streams opts.SourcePath, shards per-entry parsing across opts.NumWorkers
// goroutines, and writes one gzipped TSV per table into opts.ScratchDir. It
// returns the first fatal error encountered (parse failure or duplicate
// primary accession); on error the scratch directory may contain partial
// files and must be discarded by the caller.
func Run(opts Options) (Stats, error) {
	if opts.NumWorkers < 1 {
		opts.NumWorkers = 1
	}

	total, err := countEntries(opts.SourcePath)
	if err != nil {
		return Stats{}, apperrors.Wrap("transform.Run", err)
	}

	tracker := progress.NewTracker(int64(total), opts.Report)
	scanner := apperrors.NewRowScanner("transform.entries")

	tsvs, err := openTSVSet(opts.ScratchDir)
	if err != nil {
		return Stats{}, err
	}
	defer tsvs.Close()

	var deduped int64
	if opts.NumWorkers == 1 {
		deduped, err = runSingleThreaded(opts, tsvs, tracker, scanner)
	} else {
		deduped, err = runConcurrent(opts, tsvs, tracker, scanner)
	}
	scanner.Report()

	stats := Stats{
		EntriesParsed:   tracker.Parsed(),
		EntriesDropped:  tracker.Dropped(),
		TaxonomyDeduped: deduped,
	}
	return stats, err
}

func countEntries(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	return parser.CountEntries(gz)
}

func openSourceDecoder(path string) (*parser.EntryDecoder, *os.File, *gzip.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	return parser.NewEntryDecoder(gz), f, gz, nil
}

// runSingleThreaded is the W=1 path: identical output contract, no
// goroutines, selected whenever NumWorkers is 1.
func runSingleThreaded(opts Options, tsvs *tsvSet, tracker *progress.Tracker, scanner *apperrors.RowScanner) (int64, error) {
	dec, f, gz, err := openSourceDecoder(opts.SourcePath)
	if err != nil {
		return 0, apperrors.Wrap("transform.runSingleThreaded", err)
	}
	defer f.Close()
	defer gz.Close()

	w := newResultWriter(tsvs)

	for {
		raw, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return w.taxonomyDeduped, apperrors.E(apperrors.Op("transform.runSingleThreaded"), apperrors.KindParse, err)
		}

		entry, perr := parser.ParseEntry(raw, opts.Profile)
		if perr != nil {
			return w.taxonomyDeduped, apperrors.E(apperrors.Op("transform.runSingleThreaded"), apperrors.KindParse, perr)
		}
		if entry == nil {
			tracker.RecordDropped()
			scanner.RecordSkip(errMissingPrimaryAccession, "")
			continue
		}
		if err := w.accept(entry); err != nil {
			return w.taxonomyDeduped, err
		}
		tracker.RecordParsed()
		scanner.RecordScan()
	}
	return w.taxonomyDeduped, nil
}

// runConcurrent is the W>1 producer/worker/writer pipeline described by the
// transformer's concurrency model: a bounded tasks channel caps memory, an
// atomic error flag replaces a shared cancellation signal, and the results
// channel's close (once every worker has exited) is the writer's one and
// only termination signal — no separate done channel is needed.
func runConcurrent(opts Options, tsvs *tsvSet, tracker *progress.Tracker, scanner *apperrors.RowScanner) (int64, error) {
	dec, f, gz, err := openSourceDecoder(opts.SourcePath)
	if err != nil {
		return 0, apperrors.Wrap("transform.runConcurrent", err)
	}
	defer f.Close()
	defer gz.Close()

	tasks := make(chan []byte, opts.NumWorkers*4)
	results := make(chan workResult, opts.NumWorkers*4)
	var errorFlag atomic.Bool

	var workers sync.WaitGroup
	workers.Add(opts.NumWorkers)
	for i := 0; i < opts.NumWorkers; i++ {
		go func() {
			defer workers.Done()
			for raw := range tasks {
				entry, perr := parser.ParseEntry(raw, opts.Profile)
				results <- workResult{entry: entry, err: perr}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for {
			if errorFlag.Load() {
				return
			}
			raw, err := dec.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				errorFlag.Store(true)
				results <- workResult{err: apperrors.E(apperrors.Op("transform.producer"), apperrors.KindParse, err)}
				return
			}
			tasks <- raw
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	w := newResultWriter(tsvs)
	var fatal error
	for res := range results {
		if res.err != nil {
			if fatal == nil {
				fatal = res.err
			}
			errorFlag.Store(true)
			continue
		}
		if errorFlag.Load() {
			continue
		}
		if res.entry == nil {
			tracker.RecordDropped()
			scanner.RecordSkip(errMissingPrimaryAccession, "")
			continue
		}
		if err := w.accept(res.entry); err != nil {
			errorFlag.Store(true)
			fatal = err
			continue
		}
		tracker.RecordParsed()
		scanner.RecordScan()
	}

	return w.taxonomyDeduped, fatal
}

// resultWriter is the single consumer of parsed entries: it owns the dedup
// sets the spec requires never be shared with workers.
type resultWriter struct {
	tsvs            *tsvSet
	seenAccessions  map[string]bool
	seenTaxonomyIDs map[int]bool
	taxonomyDeduped int64
}

func newResultWriter(tsvs *tsvSet) *resultWriter {
	return &resultWriter{
		tsvs:            tsvs,
		seenAccessions:  make(map[string]bool),
		seenTaxonomyIDs: make(map[int]bool),
	}
}

// accept writes one entry's rows, enforcing the primary-accession
// uniqueness invariant and de-duplicating taxonomy rows in-memory.
func (w *resultWriter) accept(e *models.Entry) error {
	accession := e.Protein.PrimaryAccession
	if w.seenAccessions[accession] {
		return apperrors.E(apperrors.Op("transform.writer"), apperrors.KindInvariant,
			fmt.Sprintf("duplicate primary accession %q in source", accession))
	}
	w.seenAccessions[accession] = true

	rows := rowsForEntry(e)
	if _, ok := rows[TableTaxonomy]; ok {
		if w.seenTaxonomyIDs[e.Taxonomy.NCBITaxID] {
			delete(rows, TableTaxonomy)
			w.taxonomyDeduped++
		} else {
			w.seenTaxonomyIDs[e.Taxonomy.NCBITaxID] = true
		}
	}

	for table, tableRows := range rows {
		if err := w.tsvs.write(table, tableRows); err != nil {
			return apperrors.NewLoadError(apperrors.Op("transform.writer"), table, err)
		}
	}
	return nil
}
