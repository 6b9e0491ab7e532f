// Package engine orchestrates turns: it stages agent-proposed events
// through validate/apply on a private draft, enforces invariants, and
// commits all-or-nothing to the session store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	stdlog "log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"tidecraft.ai/internal/agent"
	"tidecraft.ai/internal/persistence/snapshot"
	"tidecraft.ai/internal/persistence/store"
	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

type Engine struct {
	store    *store.Store
	client   agent.Client // nil runs offline with deterministic fallbacks
	model    string
	npc      *agent.NPCConsultant
	narrator *agent.Narrator
	tune     tuning.Tuning
	log      *stdlog.Logger

	// OnCommit, if set, observes every committed turn record. Used by the
	// watch stream. Called after the store commit, on the turn's goroutine.
	OnCommit func(protocol.TurnRecord)

	mu       sync.Mutex
	lastResp map[string]string // sessionID -> previous response id
}

func New(st *store.Store, client agent.Client, model string, tune tuning.Tuning, logger *stdlog.Logger) *Engine {
	if logger == nil {
		logger = stdlog.New(io.Discard, "", 0)
	}
	return &Engine{
		store:    st,
		client:   client,
		model:    model,
		npc:      agent.NewNPCConsultant(client, model),
		narrator: agent.NewNarrator(client, model),
		tune:     tune,
		log:      logger,
		lastResp: map[string]string{},
	}
}

// CreateSession returns the session's current state, creating it from the
// world factory on first use. The seed derives from the session id so init
// is reproducible.
func (e *Engine) CreateSession(sessionID string) (*world.State, tuning.Tuning, bool, error) {
	unlock := e.store.Lock(sessionID)
	defer unlock()

	if e.store.Exists(sessionID) {
		st, tune, err := e.store.Load(sessionID)
		if err != nil {
			return nil, tuning.Tuning{}, false, mapStoreError(err)
		}
		return st, tune, false, nil
	}
	st := world.NewWorld(sessionID, seedFor(sessionID), protocol.SchemaVersion, e.tune)
	if err := e.store.Create(sessionID, st, e.tune); err != nil {
		return nil, tuning.Tuning{}, false, err
	}
	e.log.Printf("session %s created, seed %d", sessionID, st.Meta.Seed)
	return st, e.tune, true, nil
}

// RunTurn processes one player turn to completion and commits it. One turn
// at a time per session; different sessions run concurrently.
func (e *Engine) RunTurn(ctx context.Context, sessionID, playerText string) (protocol.TurnRecord, error) {
	unlock := e.store.Lock(sessionID)
	defer unlock()

	prev, tune, err := e.store.Load(sessionID)
	if err != nil {
		return protocol.TurnRecord{}, mapStoreError(err)
	}
	// A corrupt prior commit must not propagate.
	if err := world.Check(prev); err != nil {
		return protocol.TurnRecord{}, protocol.Coded(protocol.ErrInternal, fmt.Sprintf("pre-turn state invalid: %v", err))
	}
	player := prev.PlayerActor()
	if player == nil {
		return protocol.TurnRecord{}, protocol.Coded(protocol.ErrPlayerNotFound, "session has no player actor")
	}

	draft := prev.Clone()
	draft.Meta.Turn++
	ls := &turnLoop{draft: draft, playerID: player.ID}

	loopErr := e.runToolLoop(ctx, sessionID, playerText, ls, tune)
	if loopErr != nil {
		class := agent.Classify(loopErr)
		e.log.Printf("session %s turn %d: agent failure (%s): %v", sessionID, draft.Meta.Turn, class, loopErr)
		ls = rollback(prev, ls)
	}

	if ls.directive != nil && loopErr == nil {
		ls.draft.RaisePrompt(*ls.directive)
	}
	// Unreachable given per-batch checking; a violation here is a modeling
	// bug, not a bad proposal.
	if err := world.CheckTransition(prev, ls.draft); err != nil {
		return protocol.TurnRecord{}, protocol.Coded(protocol.ErrInternal, fmt.Sprintf("post-turn invariant violated: %v", err))
	}

	tel := world.BuildTelemetry(ls.draft, player.ID, tune)
	diff := world.Diff(prev, ls.draft)
	var reasons []string
	for _, r := range ls.rejected {
		reasons = append(reasons, r.Reason)
	}
	narration := e.narrator.Narrate(ctx, playerText, tel, diff, reasons)

	rec := protocol.TurnRecord{
		RecordID:       ulid.Make().String(),
		SessionID:      sessionID,
		Turn:           ls.draft.Meta.Turn,
		Timestamp:      time.Now().UTC(),
		PlayerID:       player.ID,
		PlayerText:     playerText,
		AcceptedEvents: ls.accepted,
		RejectedEvents: ls.rejected,
		NPCReplies:     ls.npcReplies,
		Narration:      narration,
		Telemetry:      tel,
		RaisedPrompt:   raisedThisTurn(ls, loopErr),
		StateDigest:    ls.draft.Digest(),
		Incomplete:     !ls.finished && loopErr == nil,
		Trace:          ls.trace,
	}

	if err := e.store.Commit(sessionID, rec, ls.draft, tune); err != nil {
		return protocol.TurnRecord{}, protocol.Coded(protocol.ErrInternal, fmt.Sprintf("commit turn %d: %v", rec.Turn, err))
	}
	e.log.Printf("session %s turn %d committed: %d accepted, %d rejected, incomplete=%v",
		sessionID, rec.Turn, len(rec.AcceptedEvents), len(rec.RejectedEvents), rec.Incomplete)
	if e.OnCommit != nil {
		e.OnCommit(rec)
	}
	return rec, nil
}

// rollback discards every world change of the turn after an agent failure.
// The turn counter still advances (time does not rewind); events accepted so
// far are reclassified, NPC replies and the trace are kept for the record.
func rollback(prev *world.State, ls *turnLoop) *turnLoop {
	rejected := ls.rejected
	for _, ev := range ls.accepted {
		ev.Stamp = nil
		rejected = append(rejected, protocol.RejectedEvent{Event: ev, Reason: world.RejectAgentFailure})
	}
	draft := prev.Clone()
	draft.Meta.Turn = prev.Meta.Turn + 1
	return &turnLoop{
		draft:      draft,
		playerID:   ls.playerID,
		rejected:   rejected,
		npcReplies: ls.npcReplies,
		trace:      ls.trace,
		finished:   true,
	}
}

// raisedThisTurn returns the prompt installed by this turn's finish_turn
// directive, for replay to re-apply. Prompts surviving from earlier turns
// are already part of the folded state.
func raisedThisTurn(ls *turnLoop, loopErr error) *world.PendingPrompt {
	if ls.directive == nil || loopErr != nil {
		return nil
	}
	return ls.draft.Meta.Prompt
}

func (e *Engine) previousResponse(sessionID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastResp[sessionID]
}

func (e *Engine) setPreviousResponse(sessionID, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" {
		e.lastResp[sessionID] = id
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return protocol.Coded(protocol.ErrSessionNotFound, "unknown session")
	case errors.Is(err, snapshot.ErrIncompatible):
		return protocol.Coded(protocol.ErrSessionIncompatible, err.Error())
	default:
		return err
	}
}

func seedFor(sessionID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	return int64(h.Sum64())
}
