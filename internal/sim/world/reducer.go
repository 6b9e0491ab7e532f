package world

import (
	"fmt"
	"math"

	"tidecraft.ai/internal/sim/derive"
	"tidecraft.ai/internal/sim/tuning"
)

// Apply folds one validated event into the state. Callers hand it a private
// draft clone; the turn engine's commit step is the only place a result
// becomes canonical. Apply assumes Validate accepted the event and returns
// an error only for events that slipped past validation.
func Apply(s *State, ev Event, tune tuning.Tuning) error {
	switch ev.Kind {
	case EvMove:
		return applyMove(s, ev, tune)
	case EvTravel:
		return applyTravel(s, ev, tune)
	case EvExplore:
		return applyExplore(s, ev, tune)
	case EvInspect:
		return applyInspect(s, ev)
	case EvPickupItem:
		return applyPickup(s, ev)
	case EvDropItem:
		return applyDrop(s, ev)
	case EvSpeak:
		return applySpeak(s, ev)
	case EvAdvanceTime:
		s.Systems.ElapsedMinutes += ev.Minutes
		s.appendLedger(fmt.Sprintf("Time passes: %d minutes.", ev.Minutes))
		return nil
	case EvCreateEntity:
		return applyCreate(s, ev)
	case EvSetFlag:
		if s.Meta.Flags == nil {
			s.Meta.Flags = map[string]string{}
		}
		s.Meta.Flags[ev.Key] = ev.Value
		s.appendLedger(fmt.Sprintf("Flag %q set to %q.", ev.Key, ev.Value))
		return nil
	default:
		return fmt.Errorf("apply: unknown event kind %q", ev.Kind)
	}
}

// ApplyAll folds a batch in order, stopping at the first error.
func ApplyAll(s *State, evs []Event, tune tuning.Tuning) error {
	for i, ev := range evs {
		if err := Apply(s, ev, tune); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Kind, err)
		}
	}
	return nil
}

func applyMove(s *State, ev Event, tune tuning.Tuning) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("move: actor %q not found", ev.Actor)
	}
	target, reason := s.resolveTarget(ev)
	if reason != "" {
		return fmt.Errorf("move: %s", reason)
	}
	b := s.Derived(tune)
	distM := CellDist(actor.Pos, target) * s.Map.CellMeters
	origin := "grass"
	if l := s.LocationAt(actor.Pos); l != nil {
		origin = l.Terrain
	}
	dest := origin
	if l := s.LocationAt(target); l != nil {
		dest = l.Terrain
	}
	minutes := derive.TravelMinutes(distM, origin, dest, b.Weather, ev.Pace, s.speeds(tune))

	actor.Pos = target
	s.Systems.ElapsedMinutes += minutes
	s.appendLedger(fmt.Sprintf("%s moves to (%d,%d), %d minutes on foot.", actor.Name, target.X, target.Y, minutes))
	refreshAfterMovement(s, actor, tune, tune.VisibilityRadiusM)
	return nil
}

func applyTravel(s *State, ev Event, tune tuning.Tuning) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("travel: actor %q not found", ev.Actor)
	}
	loc, ok := s.Locations[ev.LocationID]
	if !ok {
		return fmt.Errorf("travel: location %q not found", ev.LocationID)
	}
	b := s.Derived(tune)
	minutes := s.travelEstimate(actor.Pos, loc, ev.Pace, b.Weather, tune)

	// The gate may close while we are underway: check the tide at *arrival*
	// time and stop short of the restricted radius rather than teleporting
	// through.
	arrival := s.DerivedAt(s.Systems.ElapsedMinutes+minutes, tune)
	dest := loc.Anchor
	stopped := false
	if derive.TideBlocks(loc.TideAccess, arrival.Tide) {
		dest = stopShortOf(actor.Pos, loc, s.Map.CellMeters, tune.TravelStopMarginM)
		stopped = true
	}

	actor.Pos = dest
	s.Systems.ElapsedMinutes += minutes
	if stopped {
		s.appendLedger(fmt.Sprintf("%s travels toward %s for %d minutes but halts outside: the tide bars the way.", actor.Name, loc.Name, minutes))
	} else {
		s.appendLedger(fmt.Sprintf("%s travels to %s, %d minutes.", actor.Name, loc.Name, minutes))
		if travelConfirmed(s, ev) {
			s.Meta.Prompt = nil
		}
	}
	refreshAfterMovement(s, actor, tune, tune.VisibilityRadiusM)
	return nil
}

// stopShortOf returns the point on the line from `from` to the location
// anchor that sits marginM outside the location's restricted radius.
func stopShortOf(from Pos, loc *Location, cellMeters, marginM float64) Pos {
	r := loc.RadiusM
	if r <= 0 {
		r = cellMeters / 2
	}
	haltM := r + marginM
	distM := CellDist(from, loc.Anchor) * cellMeters
	if distM <= haltM {
		return from
	}
	frac := (distM - haltM) / distM
	return Pos{
		X: from.X + int(math.Round(float64(loc.Anchor.X-from.X)*frac)),
		Y: from.Y + int(math.Round(float64(loc.Anchor.Y-from.Y)*frac)),
		Z: from.Z,
	}
}

func applyExplore(s *State, ev Event, tune tuning.Tuning) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("explore: actor %q not found", ev.Actor)
	}
	minutes := ev.Minutes
	if minutes <= 0 {
		minutes = 30
	}
	s.Systems.ElapsedMinutes += minutes
	s.appendLedger(fmt.Sprintf("%s explores the surroundings for %d minutes.", actor.Name, minutes))
	refreshAfterMovement(s, actor, tune, tune.ExploreRadiusM)
	return nil
}

func applyInspect(s *State, ev Event) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("inspect: actor %q not found", ev.Actor)
	}
	k := s.knowledgeFor(actor.ID)
	name := ev.TargetID
	switch {
	case s.Actors[ev.TargetID] != nil:
		k.Actors[ev.TargetID] = true
		name = s.Actors[ev.TargetID].Name
	case s.Items[ev.TargetID] != nil:
		k.Items[ev.TargetID] = true
		name = s.Items[ev.TargetID].Name
	case s.Locations[ev.TargetID] != nil:
		k.Locations[ev.TargetID] = true
		name = s.Locations[ev.TargetID].Name
	default:
		return fmt.Errorf("inspect: target %q not found", ev.TargetID)
	}
	s.appendLedger(fmt.Sprintf("%s takes a closer look at %s.", actor.Name, name))
	return nil
}

// applyPickup re-points the item's place and the actor's inventory in one
// step so the two sides can never disagree.
func applyPickup(s *State, ev Event) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("pickup: actor %q not found", ev.Actor)
	}
	item, ok := s.Items[ev.ItemID]
	if !ok {
		return fmt.Errorf("pickup: item %q not found", ev.ItemID)
	}
	item.Place = Place{Kind: PlaceInventory, ActorID: actor.ID}
	if !contains(actor.Inventory, item.ID) {
		actor.Inventory = append(actor.Inventory, item.ID)
	}
	s.knowledgeFor(actor.ID).Items[item.ID] = true
	s.appendLedger(fmt.Sprintf("%s picks up the %s.", actor.Name, item.Name))
	return nil
}

func applyDrop(s *State, ev Event) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("drop: actor %q not found", ev.Actor)
	}
	item, ok := s.Items[ev.ItemID]
	if !ok {
		return fmt.Errorf("drop: item %q not found", ev.ItemID)
	}
	pos := actor.Pos
	item.Place = Place{Kind: PlaceGround, Pos: &pos}
	out := actor.Inventory[:0]
	for _, id := range actor.Inventory {
		if id != item.ID {
			out = append(out, id)
		}
	}
	actor.Inventory = out
	s.appendLedger(fmt.Sprintf("%s sets down the %s.", actor.Name, item.Name))
	return nil
}

func applySpeak(s *State, ev Event) error {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return fmt.Errorf("speak: actor %q not found", ev.Actor)
	}
	if ev.ToActor != "" {
		if listener := s.Actors[ev.ToActor]; listener != nil {
			s.knowledgeFor(actor.ID).Actors[listener.ID] = true
			s.appendLedger(fmt.Sprintf("%s says to %s: %q", actor.Name, listener.Name, ev.Text))
			return nil
		}
	}
	s.appendLedger(fmt.Sprintf("%s says: %q", actor.Name, ev.Text))
	return nil
}

// applyCreate inserts the entity exactly as proposed. It deliberately does
// not patch up actor inventories to match an inventory-placed item; the
// post-batch invariant check rejects inconsistent proposals wholesale.
func applyCreate(s *State, ev Event) error {
	switch {
	case ev.NewItem != nil:
		it := ev.NewItem.clone()
		s.Items[it.ID] = it
		s.appendLedger(fmt.Sprintf("A %s appears in the world.", it.Name))
	case ev.NewLocation != nil:
		cp := *ev.NewLocation
		if cp.TideAccess == "" {
			cp.TideAccess = derive.AccessAlways
		}
		s.Locations[cp.ID] = &cp
		s.appendLedger(fmt.Sprintf("A new place is marked on the map: %s.", cp.Name))
	case ev.NewActor != nil:
		a := ev.NewActor.clone()
		if a.Kind == "" {
			a.Kind = ActorNPC
		}
		s.Actors[a.ID] = a
		s.appendLedger(fmt.Sprintf("%s arrives.", a.Name))
	default:
		return fmt.Errorf("create_entity: no entity payload")
	}
	return nil
}

// refreshAfterMovement refreshes the acting player's knowledge after any
// movement-class event. NPC movement does not grow the player projection.
func refreshAfterMovement(s *State, actor *Actor, tune tuning.Tuning, radiusM float64) {
	if actor.Kind != ActorPlayer {
		return
	}
	RefreshKnowledge(s, actor.ID, radiusM)
}
