// Package parser streams UniProtKB XML one <entry> element at a time so the
// transformer never holds more than one entry's worth of XML in memory.
package parser

import (
	"bytes"
	"encoding/xml"
	"io"
)

// entryTag is the local name of the element this decoder splits the stream
// on. UniProt's root element carries the "http://uniprot.org/uniprot"
// namespace, but we match on local name alone (the teacher's xml_parser.go
// does the same with strings.ToUpper(t.Name.Local)) so a release whose
// namespace URI drifts across schema versions still parses.
const entryTag = "entry"

// EntryDecoder reads <entry> elements one at a time from a gzip-decompressed
// UniProt XML stream. Each call to Next discards the previous entry (and any
// preceding root-level siblings) before returning the next, keeping memory
// bounded regardless of file size.
type EntryDecoder struct {
	dec *xml.Decoder
}

// NewEntryDecoder wraps r, which must already be decompressed.
func NewEntryDecoder(r io.Reader) *EntryDecoder {
	return &EntryDecoder{dec: xml.NewDecoder(r)}
}

// Next returns the raw bytes of the next <entry> element, or io.EOF once the
// stream is exhausted. The returned bytes are a standalone, re-parseable XML
// fragment (the start tag through its matching end tag).
func (d *EntryDecoder) Next() ([]byte, error) {
	for {
		tok, err := d.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != entryTag {
			continue
		}

		var buf bytes.Buffer
		enc := xml.NewEncoder(&buf)
		if err := enc.EncodeToken(start); err != nil {
			return nil, err
		}
		if err := copyUntilEnd(d.dec, enc, start.Name); err != nil {
			return nil, err
		}
		if err := enc.Flush(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// copyUntilEnd re-emits every token belonging to the element whose start tag
// was already written to enc, stopping after its matching EndElement.
func copyUntilEnd(dec *xml.Decoder, enc *xml.Encoder, name xml.Name) error {
	depth := 1
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == name.Local {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == name.Local {
				depth--
			}
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return err
		}
		if depth == 0 {
			return nil
		}
	}
}

// CountEntries makes a single forward pass over r counting <entry> start
// tags. It is I/O bound and touches each entry as a no-op, matching the
// spec's separate pre-pass used only for progress reporting.
func CountEntries(r io.Reader) (int, error) {
	dec := xml.NewDecoder(r)
	count := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == entryTag {
			count++
		}
	}
}
