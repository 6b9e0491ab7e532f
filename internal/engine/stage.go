package engine

import (
	"github.com/google/uuid"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

// stageBatch runs one propose_events call against a working copy seeded
// from the current draft. Events are validated and folded in order; if the
// folded result violates an invariant, every event in the batch is rejected
// and the draft is left untouched. There is no partial application of a
// single call's batch.
func stageBatch(ls *turnLoop, events []world.Event, tune tuning.Tuning) (accepted, rejected int) {
	working := ls.draft.Clone()
	var staged []world.Event
	var refused []protocol.RejectedEvent

	for _, ev := range events {
		ev.Stamp = nil
		if ev.Actor == "" && eventNeedsActor(ev.Kind) {
			ev.Actor = ls.playerID
		}
		if reason := world.Validate(working, ev, tune); reason != "" {
			refused = append(refused, protocol.RejectedEvent{Event: ev, Reason: reason})
			continue
		}
		ev.Stamp = &world.Stamp{
			ID:       uuid.NewString(),
			Turn:     working.Meta.Turn,
			Proposer: world.ProposerGameMaster,
			Actor:    ev.Actor,
		}
		if err := world.Apply(working, ev, tune); err != nil {
			ev.Stamp = nil
			refused = append(refused, protocol.RejectedEvent{Event: ev, Reason: "apply_failed: " + err.Error()})
			continue
		}
		staged = append(staged, ev)
	}

	if err := world.CheckTransition(ls.draft, working); err != nil {
		reason := world.RejectInvariantPrefix + err.Error()
		for _, ev := range staged {
			ev.Stamp = nil
			refused = append(refused, protocol.RejectedEvent{Event: ev, Reason: reason})
		}
		ls.rejected = append(ls.rejected, refused...)
		return 0, len(events)
	}

	ls.draft = working
	ls.accepted = append(ls.accepted, staged...)
	ls.rejected = append(ls.rejected, refused...)
	return len(staged), len(refused)
}

func eventNeedsActor(kind string) bool {
	switch kind {
	case world.EvAdvanceTime, world.EvCreateEntity, world.EvSetFlag:
		return false
	}
	return true
}
