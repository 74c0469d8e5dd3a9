package transform

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/nishad/uniprotetl/internal/errors"
)

// tsvSet owns one gzip+csv writer per table and closes them all together.
// Mirrors the teacher's pattern of grouping related file handles behind a
// single struct with a Close that cannot leak a handle on partial failure.
type tsvSet struct {
	dir     string
	files   map[string]*os.File
	gzips   map[string]*gzip.Writer
	writers map[string]*csv.Writer
}

// openTSVSet creates <dir>/<table>.tsv.gz for every table in TableHeaders
// and writes its header row. On any failure it closes what it already
// opened before returning the error.
func openTSVSet(dir string) (*tsvSet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap("transform.openTSVSet", err)
	}

	s := &tsvSet{
		dir:     dir,
		files:   make(map[string]*os.File, len(TableHeaders)),
		gzips:   make(map[string]*gzip.Writer, len(TableHeaders)),
		writers: make(map[string]*csv.Writer, len(TableHeaders)),
	}

	for table, header := range TableHeaders {
		if err := s.open(table, header); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *tsvSet) open(table string, header []string) error {
	path := filepath.Join(s.dir, table+".tsv.gz")
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WrapMsg("transform.openTSVSet", fmt.Sprintf("creating %s", path), err)
	}
	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)
	w.Comma = '\t'
	w.UseCRLF = false

	if err := w.Write(header); err != nil {
		f.Close()
		return apperrors.WrapMsg("transform.openTSVSet", fmt.Sprintf("writing header for %s", table), err)
	}

	s.files[table] = f
	s.gzips[table] = gz
	s.writers[table] = w
	return nil
}

// write appends rows to table, if the set opened that table.
func (s *tsvSet) write(table string, rows [][]string) error {
	w, ok := s.writers[table]
	if !ok {
		return nil
	}
	return w.WriteAll(rows)
}

// Close flushes and closes every writer/gzip/file it opened, returning the
// first error encountered while still attempting to close the rest.
func (s *tsvSet) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for table, w := range s.writers {
		w.Flush()
		record(w.Error())
		if gz, ok := s.gzips[table]; ok {
			record(gz.Close())
		}
		if f, ok := s.files[table]; ok {
			record(f.Close())
		}
	}
	return firstErr
}
