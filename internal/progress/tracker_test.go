package progress

import "testing"

func TestTrackerReportsPercent(t *testing.T) {
	var last Snapshot
	tr := NewTracker(4, func(s Snapshot) { last = s })

	tr.RecordParsed()
	tr.RecordParsed()

	if last.EntriesParsed != 2 {
		t.Errorf("expected 2 parsed, got %d", last.EntriesParsed)
	}
	if last.PercentComplete != 50 {
		t.Errorf("expected 50%% complete, got %v", last.PercentComplete)
	}
}

func TestTrackerZeroTotalNeverDivides(t *testing.T) {
	var last Snapshot
	tr := NewTracker(0, func(s Snapshot) { last = s })

	tr.RecordParsed()

	if last.PercentComplete != 0 {
		t.Errorf("expected 0%% complete with unknown total, got %v", last.PercentComplete)
	}
}

func TestTrackerRecordDropped(t *testing.T) {
	tr := NewTracker(10, nil)
	tr.RecordParsed()
	tr.RecordDropped()
	tr.RecordDropped()

	if tr.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", tr.Dropped())
	}
	summary := tr.Summary()
	if summary == "" {
		t.Error("expected a non-empty summary")
	}
}

func TestTrackerNilReportDoesNotPanic(t *testing.T) {
	tr := NewTracker(1, nil)
	tr.RecordParsed()
}
