// Package store composes the snapshot, turn-log and index layers into the
// per-session store the turn engine commits through. The append-only log is
// the durable source of truth; both snapshots are caches reconstructable by
// Replay.
package store

import (
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tidecraft.ai/internal/persistence/indexdb"
	turnlog "tidecraft.ai/internal/persistence/log"
	"tidecraft.ai/internal/persistence/snapshot"
	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

var ErrNotFound = errors.New("session not found")

type Store struct {
	dataDir string
	idx     *indexdb.SQLiteIndex // optional; nil runs file-only
	log     *stdlog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func Open(dataDir string, idx *indexdb.SQLiteIndex, logger *stdlog.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		idx:     idx,
		log:     logger,
		locks:   map[string]*sync.Mutex{},
	}
}

// Lock serializes turns per session. Different sessions proceed
// concurrently; the same session processes one turn at a time.
func (s *Store) Lock(sessionID string) func() {
	s.mu.Lock()
	l := s.locks[sessionID]
	if l == nil {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Store) sessionDir(id string) string {
	return filepath.Join(s.dataDir, "sessions", id)
}

func (s *Store) initialPath(id string) string {
	return filepath.Join(s.sessionDir(id), "initial.snap.zst")
}

func (s *Store) currentPath(id string) string {
	return filepath.Join(s.sessionDir(id), "current.snap.zst")
}

func (s *Store) logPath(id string) string {
	return filepath.Join(s.sessionDir(id), "turns.jsonl.zst")
}

func (s *Store) Exists(sessionID string) bool {
	_, err := os.Stat(s.currentPath(sessionID))
	return err == nil
}

// Create writes the initial and running snapshots for a fresh session.
func (s *Store) Create(sessionID string, st *world.State, tune tuning.Tuning) error {
	snap := snapshot.New(sessionID, st, tune)
	if err := snapshot.Write(s.initialPath(sessionID), snap); err != nil {
		return err
	}
	if err := snapshot.Write(s.currentPath(sessionID), snap); err != nil {
		return err
	}
	s.indexSession(sessionID, st.Meta.Turn)
	return nil
}

// Load returns the running snapshot's state and the session's tuning.
// Schema mismatches surface as snapshot.ErrIncompatible.
func (s *Store) Load(sessionID string) (*world.State, tuning.Tuning, error) {
	snap, err := snapshot.Read(s.currentPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tuning.Tuning{}, ErrNotFound
		}
		return nil, tuning.Tuning{}, err
	}
	return snap.State, snap.Tuning, nil
}

// Commit appends the turn record and overwrites the running snapshot, log
// first: if the snapshot write is lost, replay still reconstructs it.
func (s *Store) Commit(sessionID string, rec protocol.TurnRecord, st *world.State, tune tuning.Tuning) error {
	if err := turnlog.Append(s.logPath(sessionID), rec); err != nil {
		return fmt.Errorf("append turn %d: %w", rec.Turn, err)
	}
	if err := snapshot.Write(s.currentPath(sessionID), snapshot.New(sessionID, st, tune)); err != nil {
		return fmt.Errorf("write running snapshot: %w", err)
	}
	s.indexSession(sessionID, st.Meta.Turn)
	if s.idx != nil {
		if err := s.idx.InsertTurn(sessionID, rec.Turn, rec.RecordID, len(rec.AcceptedEvents), len(rec.RejectedEvents), rec.Incomplete, rec.Timestamp); err != nil && s.log != nil {
			s.log.Printf("index turn %s/%d: %v", sessionID, rec.Turn, err)
		}
	}
	return nil
}

// Records returns the deduplicated turn log in order.
func (s *Store) Records(sessionID string) ([]protocol.TurnRecord, error) {
	return turnlog.ReadAll(s.logPath(sessionID))
}

// Replay reconstructs the running state purely from the initial snapshot
// and the log: per record it bumps the turn counter, folds the accepted
// events through the reducer, and re-applies the recorded prompt directive.
func (s *Store) Replay(sessionID string) (*world.State, error) {
	snap, err := snapshot.Read(s.initialPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	records, err := s.Records(sessionID)
	if err != nil {
		return nil, err
	}
	st := snap.State
	for _, rec := range records {
		var err error
		st, err = FoldRecord(st, rec, snap.Tuning)
		if err != nil {
			return nil, fmt.Errorf("replay turn %d: %w", rec.Turn, err)
		}
	}
	return st, nil
}

// FoldRecord applies one committed turn record to a state, mirroring the
// live commit path exactly. It returns a new state; the input is not
// mutated.
func FoldRecord(st *world.State, rec protocol.TurnRecord, tune tuning.Tuning) (*world.State, error) {
	next := st.Clone()
	next.Meta.Turn = rec.Turn
	if err := world.ApplyAll(next, rec.AcceptedEvents, tune); err != nil {
		return nil, err
	}
	if rec.RaisedPrompt != nil {
		p := *rec.RaisedPrompt
		next.Meta.Prompt = &p
	}
	return next, nil
}

// VerifyReplay folds the log over the initial snapshot and checks every
// prefix digest against the recorded one, then the final state against the
// running snapshot. logf, if non-nil, receives per-turn progress.
func (s *Store) VerifyReplay(sessionID string, logf func(format string, args ...any)) error {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	snap, err := snapshot.Read(s.initialPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	records, err := s.Records(sessionID)
	if err != nil {
		return err
	}
	st := snap.State
	for _, rec := range records {
		st, err = FoldRecord(st, rec, snap.Tuning)
		if err != nil {
			return fmt.Errorf("turn %d: %w", rec.Turn, err)
		}
		if rec.StateDigest != "" && st.Digest() != rec.StateDigest {
			return fmt.Errorf("turn %d: digest mismatch after replay", rec.Turn)
		}
		logf("turn %d ok: %d events, digest %.12s", rec.Turn, len(rec.AcceptedEvents), rec.StateDigest)
	}
	running, err := snapshot.Read(s.currentPath(sessionID))
	if err != nil {
		return fmt.Errorf("read running snapshot: %w", err)
	}
	if got, want := st.Digest(), running.State.Digest(); got != want {
		return fmt.Errorf("replayed state diverges from running snapshot (%.12s != %.12s)", got, want)
	}
	return nil
}

func (s *Store) indexSession(sessionID string, turn int) {
	if s.idx == nil {
		return
	}
	if err := s.idx.UpsertSession(sessionID, protocol.SchemaVersion, turn, time.Now()); err != nil && s.log != nil {
		s.log.Printf("index session %s: %v", sessionID, err)
	}
}
