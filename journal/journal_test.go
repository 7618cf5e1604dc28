package journal

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/citenav/dbopen"
	_ "modernc.org/sqlite"
)

func TestJournal_RecordAndQuery(t *testing.T) {
	db := dbopen.OpenMemory(t)
	j := New(db)
	if err := j.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	now := time.Now().UnixMicro()
	j.RecordAsync(&Entry{
		LookupID: "lkp_1", Transport: "http", Quote: "term shall be 12 months",
		Status: "found", Page: 3, Strategy: "exact", DurationUs: 1200, Timestamp: now,
	})
	j.RecordAsync(&Entry{
		LookupID: "lkp_2", Transport: "mcp", Quote: "nonexistent clause",
		Status: "not_found", Page: 1, DurationUs: 5400, Timestamp: now + 1,
	})

	// Close drains the buffer synchronously.
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j2 := New(db)
	t.Cleanup(func() { j2.Close() })
	entries, err := j2.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].LookupID != "lkp_2" || entries[1].LookupID != "lkp_1" {
		t.Errorf("order = %s, %s", entries[0].LookupID, entries[1].LookupID)
	}
	if entries[1].Strategy != "exact" || entries[1].Page != 3 {
		t.Errorf("entry = %+v", entries[1])
	}
}

func TestJournal_CloseTwice(t *testing.T) {
	db := dbopen.OpenMemory(t)
	j := New(db)
	if err := j.Init(); err != nil {
		t.Fatal(err)
	}
	j.Close()
	j.Close() // must not panic or block
}
