// Package log persists a session's append-only turn log as zstd-framed
// JSONL: one compressed frame per appended record, which concatenate into a
// single valid stream. Appends are at-least-once; readers deduplicate by
// turn number, and replay, not the snapshot, is the source of truth.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"tidecraft.ai/internal/protocol"
)

// Append writes one turn record to the end of the log file, creating it if
// needed. Each call produces an independent zstd frame, so a crash between
// appends never corrupts earlier records.
func Append(path string, rec protocol.TurnRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}

	b, err := json.Marshal(rec)
	if err == nil {
		_, err = enc.Write(append(b, '\n'))
	}
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("append turn log: %w", err)
	}
	return nil
}

// ReadAll streams every record in order, dropping duplicate turn numbers
// (the at-least-once tolerance: a retried append keeps the first copy).
func ReadAll(path string) ([]protocol.TurnRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []protocol.TurnRecord
	seen := map[int]bool{}
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec protocol.TurnRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("turn log: unmarshal: %w", err)
		}
		if seen[rec.Turn] {
			continue
		}
		seen[rec.Turn] = true
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
