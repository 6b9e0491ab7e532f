package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

// ErrIncompatible is returned when a snapshot's schema version tag does not
// share the expected prefix. Callers surface it as a distinct
// incompatible-session error; there is no lossy upgrade path.
var ErrIncompatible = errors.New("incompatible session snapshot")

type Header struct {
	SchemaVersion string `json:"schema_version"`
	SessionID     string `json:"session_id"`
	Turn          int    `json:"turn"`
}

// Snapshot captures the full world state plus the tuning it ran with, so a
// replay reproduces the exact semantics of the recorded session.
type Snapshot struct {
	Header Header        `json:"header"`
	Tuning tuning.Tuning `json:"tuning"`
	State  *world.State  `json:"state"`
}

func New(sessionID string, st *world.State, tune tuning.Tuning) Snapshot {
	return Snapshot{
		Header: Header{
			SchemaVersion: protocol.SchemaVersion,
			SessionID:     sessionID,
			Turn:          st.Meta.Turn,
		},
		Tuning: tune,
		State:  st,
	}
}

// Write stores the snapshot as zstd-compressed JSON, atomically: it writes a
// temp file in the same directory and renames it over the target.
func Write(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	werr := json.NewEncoder(bw).Encode(&snap)
	if werr == nil {
		werr = bw.Flush()
	}
	if cerr := enc.Close(); werr == nil {
		werr = cerr
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", werr)
	}
	return os.Rename(tmp, path)
}

func Read(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReaderSize(dec, 256*1024)).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	if !strings.HasPrefix(snap.Header.SchemaVersion, protocol.SchemaVersionPrefix) {
		return snap, fmt.Errorf("%w: have %q, want prefix %q",
			ErrIncompatible, snap.Header.SchemaVersion, protocol.SchemaVersionPrefix)
	}
	return snap, nil
}
