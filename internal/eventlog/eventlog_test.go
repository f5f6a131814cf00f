package eventlog

import (
	"sync"
	"testing"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLog(t)

	l.RecordAsync(&Event{Kind: KindConsole, Level: "error", Text: "boom"})
	l.RecordAsync(&Event{Kind: KindNetwork, Method: "GET", URL: "http://localhost:3000/api", Status: 500})
	l.RecordAsync(&Event{Kind: KindConsole, Level: "log", Text: "ok"})
	l.Flush()

	console, err := l.Recent(KindConsole, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(console) != 2 {
		t.Fatalf("console events = %d, want 2", len(console))
	}
	// Newest first.
	if console[0].Text != "ok" || console[1].Text != "boom" {
		t.Errorf("order wrong: %q, %q", console[0].Text, console[1].Text)
	}

	network, err := l.Recent(KindNetwork, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(network) != 1 || network[0].Status != 500 || network[0].URL != "http://localhost:3000/api" {
		t.Errorf("network events = %+v", network)
	}

	all, err := l.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all events = %d, want 3", len(all))
	}
}

func TestRecentLimit(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 10; i++ {
		l.RecordAsync(&Event{Kind: KindStdio, Text: "line"})
	}
	l.Flush()

	got, err := l.Recent(KindStdio, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("events = %d, want 3", len(got))
	}
}

func TestByIDs(t *testing.T) {
	l := openTestLog(t)
	l.RecordAsync(&Event{Kind: KindConsole, Text: "first"})
	l.RecordAsync(&Event{Kind: KindConsole, Text: "second"})
	l.Flush()

	recent, err := l.Recent(KindConsole, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}

	ids := []int64{recent[0].ID, recent[1].ID, 9999}
	got, err := l.ByIDs(ids)
	if err != nil {
		t.Fatalf("ByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 (missing ids skipped)", len(got))
	}
	if got[0].ID >= got[1].ID {
		t.Error("ByIDs should return id-ascending order")
	}
}

func TestByIDs_Empty(t *testing.T) {
	l := openTestLog(t)
	got, err := l.ByIDs(nil)
	if err != nil || got != nil {
		t.Errorf("empty query should be a no-op, got (%v, %v)", got, err)
	}
}

func TestRecordAfterClose(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.RecordAsync(&Event{Kind: KindConsole, Text: "before"})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// CDP callbacks can fire on their own goroutine during shutdown; a
	// late record must be dropped, never panic.
	l.RecordAsync(&Event{Kind: KindConsole, Text: "after"})
	l.Flush()
	l.Close()
}

func TestCloseFlushesBuffered(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 5; i++ {
		l.RecordAsync(&Event{Kind: KindStdio, Text: "queued"})
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Recent(KindStdio, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("events persisted = %d, want 5", len(got))
	}
}

func TestConcurrentRecord(t *testing.T) {
	l := openTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.RecordAsync(&Event{Kind: KindConsole, Text: "spam"})
			}
		}()
	}
	wg.Wait()
	l.Flush()

	got, err := l.Recent(KindConsole, 200)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 160 {
		t.Errorf("events = %d, want 160", len(got))
	}
}
