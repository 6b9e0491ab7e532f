package log

import (
	"path/filepath"
	"testing"
	"time"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/world"
)

func record(turn int, narration string) protocol.TurnRecord {
	return protocol.TurnRecord{
		RecordID:   "rec",
		SessionID:  "s1",
		Turn:       turn,
		Timestamp:  time.Unix(1700000000, 0).UTC(),
		PlayerID:   "player",
		PlayerText: "go",
		AcceptedEvents: []world.Event{
			{Kind: world.EvAdvanceTime, Minutes: 30},
		},
		Narration: narration,
	}
}

func TestAppendReadAll_FramesConcatenate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.jsonl.zst")

	for turn := 1; turn <= 5; turn++ {
		if err := Append(path, record(turn, "n")); err != nil {
			t.Fatalf("append %d: %v", turn, err)
		}
	}

	recs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("got %d records", len(recs))
	}
	for i, rec := range recs {
		if rec.Turn != i+1 {
			t.Fatalf("record %d has turn %d", i, rec.Turn)
		}
		if len(rec.AcceptedEvents) != 1 || rec.AcceptedEvents[0].Kind != world.EvAdvanceTime {
			t.Fatalf("record %d events: %+v", i, rec.AcceptedEvents)
		}
	}
}

func TestReadAll_DeduplicatesRetriedAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.jsonl.zst")

	if err := Append(path, record(1, "first")); err != nil {
		t.Fatal(err)
	}
	// An at-least-once retry of the same turn.
	if err := Append(path, record(1, "retry")); err != nil {
		t.Fatal(err)
	}
	if err := Append(path, record(2, "second")); err != nil {
		t.Fatal(err)
	}

	recs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Narration != "first" {
		t.Fatalf("dedup kept the wrong copy: %q", recs[0].Narration)
	}
}

func TestReadAll_MissingFile(t *testing.T) {
	recs, err := ReadAll(filepath.Join(t.TempDir(), "absent.zst"))
	if err != nil || recs != nil {
		t.Fatalf("missing log: %v %v", recs, err)
	}
}
