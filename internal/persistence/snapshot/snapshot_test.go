package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

func TestWriteRead_Roundtrip(t *testing.T) {
	tune := tuning.Defaults()
	st := world.NewWorld("s1", 42, protocol.SchemaVersion, tune)
	st.Meta.Turn = 7

	path := filepath.Join(t.TempDir(), "current.snap.zst")
	if err := Write(path, New("s1", st, tune)); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Header.SessionID != "s1" || snap.Header.Turn != 7 {
		t.Fatalf("header: %+v", snap.Header)
	}
	if snap.Tuning.TideCycleMinutes != tune.TideCycleMinutes {
		t.Fatalf("tuning not captured: %+v", snap.Tuning)
	}
	if snap.State.Digest() != st.Digest() {
		t.Fatal("state digest changed over the write/read cycle")
	}
}

func TestRead_IncompatibleVersion(t *testing.T) {
	tune := tuning.Defaults()
	st := world.NewWorld("s1", 42, "zz9.0", tune)

	path := filepath.Join(t.TempDir(), "old.snap.zst")
	snap := New("s1", st, tune)
	snap.Header.SchemaVersion = "zz9.0"
	if err := Write(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Read(path)
	if !errors.Is(err, ErrIncompatible) {
		t.Fatalf("want ErrIncompatible, got %v", err)
	}
}

func TestWrite_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.zst")
	if err := Write(path, New("s1", world.NewWorld("s1", 1, protocol.SchemaVersion, tuning.Defaults()), tuning.Defaults())); err != nil {
		t.Fatalf("write: %v", err)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 1 || ents[0].Name() != "snap.zst" {
		t.Fatalf("directory contents: %v", ents)
	}
}
