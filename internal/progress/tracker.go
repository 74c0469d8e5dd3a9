// Package progress reports transformer throughput while a release file is
// being parsed. There is no persisted checkpoint: a run either completes or
// the scratch directory is discarded, so there is nothing to resume from.
package progress

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Snapshot is one progress sample handed to a Tracker's Func callback.
type Snapshot struct {
	EntriesParsed   int64
	TotalEntries    int64
	PercentComplete float64
	EntriesPerSec   float64
	Elapsed         time.Duration
}

// Func is called periodically as entries are parsed.
type Func func(Snapshot)

// Tracker accumulates entry counts across the transformer's workers and
// reports snapshots on demand. Safe for concurrent use by the writer and
// any number of worker goroutines.
type Tracker struct {
	total   int64
	parsed  atomic.Int64
	dropped atomic.Int64
	started time.Time
	report  Func
}

// NewTracker creates a tracker for a run expected to process total entries
// (0 is valid — snapshots are still reported, with PercentComplete left at 0).
func NewTracker(total int64, report Func) *Tracker {
	return &Tracker{total: total, started: time.Now(), report: report}
}

// RecordParsed marks one entry as successfully parsed and written.
func (t *Tracker) RecordParsed() {
	t.parsed.Add(1)
	t.emit()
}

// RecordDropped marks one entry as silently dropped (no primary accession).
func (t *Tracker) RecordDropped() {
	t.dropped.Add(1)
}

// Parsed returns the number of entries recorded as parsed so far.
func (t *Tracker) Parsed() int64 { return t.parsed.Load() }

// Dropped returns the number of entries recorded as dropped so far.
func (t *Tracker) Dropped() int64 { return t.dropped.Load() }

func (t *Tracker) emit() {
	if t.report == nil {
		return
	}
	parsed := t.parsed.Load()
	elapsed := time.Since(t.started)

	var pct float64
	if t.total > 0 {
		pct = float64(parsed) / float64(t.total) * 100
	}
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(parsed) / elapsed.Seconds()
	}

	t.report(Snapshot{
		EntriesParsed:   parsed,
		TotalEntries:    t.total,
		PercentComplete: pct,
		EntriesPerSec:   rate,
		Elapsed:         elapsed,
	})
}

// Summary returns a one-line human-readable recap, in the style of the
// teacher's end-of-run stats block.
func (t *Tracker) Summary() string {
	elapsed := time.Since(t.started)
	return fmt.Sprintf("parsed %d entries (%d dropped) in %s", t.parsed.Load(), t.dropped.Load(), elapsed.Round(time.Millisecond))
}
