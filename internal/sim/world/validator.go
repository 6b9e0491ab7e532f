package world

import (
	"tidecraft.ai/internal/sim/derive"
	"tidecraft.ai/internal/sim/tuning"
)

// Validation rejection reasons. Tide rejections are "tide_blocks_<locationID>".
const (
	RejectUnknownKind         = "unknown_event_kind"
	RejectActorNotFound       = "actor_not_found"
	RejectMissingTarget       = "missing_target"
	RejectOutOfBounds         = "out_of_bounds"
	RejectMoveExceedsLimit    = "move_exceeds_turn_limit"
	RejectLocationNotFound    = "location_not_found"
	RejectNeedsConfirmation   = "travel_requires_confirmation"
	RejectItemNotFound        = "item_not_found"
	RejectItemNotOnGround     = "item_not_on_ground"
	RejectItemTooFar          = "item_too_far"
	RejectItemNotInInventory  = "item_not_in_inventory"
	RejectInvalidMinutes      = "invalid_minutes"
	RejectEmptyText           = "empty_text"
	RejectTargetNotFound      = "target_not_found"
	RejectDuplicateID         = "duplicate_id"
	RejectInvalidEntity       = "invalid_entity"
	RejectTideBlocksPrefix    = "tide_blocks_"
	RejectInvariantPrefix     = "invariant_violation:"
	RejectAgentFailure        = "agent_failure_rollback"
)

// Validate is a pure guard: it accepts (empty reason) or rejects an event
// against the given state and its derived constraints. It never mutates
// state and never calls the reasoning agents.
func Validate(s *State, ev Event, tune tuning.Tuning) string {
	switch ev.Kind {
	case EvMove:
		return validateMove(s, ev, tune)
	case EvTravel:
		return validateTravel(s, ev, tune)
	case EvExplore:
		if _, ok := s.Actors[ev.Actor]; !ok {
			return RejectActorNotFound
		}
		if ev.Minutes < 0 || ev.Minutes > tune.MaxAdvanceMinutes {
			return RejectInvalidMinutes
		}
		return ""
	case EvInspect:
		if _, ok := s.Actors[ev.Actor]; !ok {
			return RejectActorNotFound
		}
		if !s.entityExists(ev.TargetID) {
			return RejectTargetNotFound
		}
		return ""
	case EvPickupItem:
		return validatePickup(s, ev, tune)
	case EvDropItem:
		return validateDrop(s, ev)
	case EvSpeak:
		if _, ok := s.Actors[ev.Actor]; !ok {
			return RejectActorNotFound
		}
		if ev.Text == "" {
			return RejectEmptyText
		}
		return ""
	case EvAdvanceTime:
		if ev.Minutes <= 0 || ev.Minutes > tune.MaxAdvanceMinutes {
			return RejectInvalidMinutes
		}
		return ""
	case EvCreateEntity:
		return validateCreate(s, ev)
	case EvSetFlag:
		if ev.Key == "" {
			return RejectMissingTarget
		}
		return ""
	default:
		return RejectUnknownKind
	}
}

func validateMove(s *State, ev Event, tune tuning.Tuning) string {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return RejectActorNotFound
	}
	target, reason := s.resolveTarget(ev)
	if reason != "" {
		return reason
	}
	if !s.Map.Contains(target) {
		return RejectOutOfBounds
	}
	b := s.Derived(tune)
	distM := CellDist(actor.Pos, target) * s.Map.CellMeters
	if distM > b.Constraints.MaxMoveMeters {
		return RejectMoveExceedsLimit
	}
	if id := s.tideBlockedAt(target, b.Tide); id != "" {
		return RejectTideBlocksPrefix + id
	}
	return ""
}

func validateTravel(s *State, ev Event, tune tuning.Tuning) string {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return RejectActorNotFound
	}
	loc, ok := s.Locations[ev.LocationID]
	if !ok {
		return RejectLocationNotFound
	}
	b := s.Derived(tune)
	if derive.TideBlocks(loc.TideAccess, b.Tide) {
		return RejectTideBlocksPrefix + loc.ID
	}
	minutes := s.travelEstimate(actor.Pos, loc, ev.Pace, b.Weather, tune)
	if minutes > tune.LongTravelThresholdMin && !travelConfirmed(s, ev) {
		return RejectNeedsConfirmation
	}
	return ""
}

// travelConfirmed checks the cross-turn handshake: a still-pending
// clarification prompt for the same destination, referenced by the event's
// confirmation token.
func travelConfirmed(s *State, ev Event) bool {
	p := s.Meta.Prompt
	if p == nil || ev.Confirm == "" || ev.Confirm != p.ID {
		return false
	}
	return p.Data["location_id"] == ev.LocationID
}

func validatePickup(s *State, ev Event, tune tuning.Tuning) string {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return RejectActorNotFound
	}
	item, ok := s.Items[ev.ItemID]
	if !ok {
		return RejectItemNotFound
	}
	if item.Place.Kind != PlaceGround || item.Place.Pos == nil {
		return RejectItemNotOnGround
	}
	if CellDist(actor.Pos, *item.Place.Pos)*s.Map.CellMeters > tune.PickupRadiusM {
		return RejectItemTooFar
	}
	return ""
}

func validateDrop(s *State, ev Event) string {
	actor, ok := s.Actors[ev.Actor]
	if !ok {
		return RejectActorNotFound
	}
	item, ok := s.Items[ev.ItemID]
	if !ok {
		return RejectItemNotFound
	}
	if item.Place.Kind != PlaceInventory || item.Place.ActorID != actor.ID || !contains(actor.Inventory, item.ID) {
		return RejectItemNotInInventory
	}
	return ""
}

func validateCreate(s *State, ev Event) string {
	set := 0
	if ev.NewItem != nil {
		set++
	}
	if ev.NewLocation != nil {
		set++
	}
	if ev.NewActor != nil {
		set++
	}
	if set != 1 {
		return RejectInvalidEntity
	}
	switch {
	case ev.NewItem != nil:
		it := ev.NewItem
		if it.ID == "" || it.Name == "" {
			return RejectInvalidEntity
		}
		if _, exists := s.Items[it.ID]; exists {
			return RejectDuplicateID
		}
		if it.Place.Kind == PlaceGround && (it.Place.Pos == nil || !s.Map.Contains(*it.Place.Pos)) {
			return RejectOutOfBounds
		}
	case ev.NewLocation != nil:
		l := ev.NewLocation
		if l.ID == "" || l.Name == "" {
			return RejectInvalidEntity
		}
		if _, exists := s.Locations[l.ID]; exists {
			return RejectDuplicateID
		}
		if !s.Map.Contains(l.Anchor) {
			return RejectOutOfBounds
		}
	case ev.NewActor != nil:
		a := ev.NewActor
		if a.ID == "" || a.Name == "" {
			return RejectInvalidEntity
		}
		if _, exists := s.Actors[a.ID]; exists {
			return RejectDuplicateID
		}
		if !s.Map.Contains(a.Pos) {
			return RejectOutOfBounds
		}
	}
	return ""
}

// resolveTarget resolves a move's explicit position or named destination.
func (s *State) resolveTarget(ev Event) (Pos, string) {
	if ev.To != nil {
		return *ev.To, ""
	}
	if ev.LocationID != "" {
		loc, ok := s.Locations[ev.LocationID]
		if !ok {
			return Pos{}, RejectLocationNotFound
		}
		return loc.Anchor, ""
	}
	return Pos{}, RejectMissingTarget
}

// tideBlockedAt returns the id of a tide-restricted location whose radius
// covers p at the given tide, or "".
func (s *State) tideBlockedAt(p Pos, tide derive.Tide) string {
	for _, id := range s.sortedLocationIDs() {
		loc := s.Locations[id]
		if loc.TideAccess == "" || loc.TideAccess == derive.AccessAlways {
			continue
		}
		r := loc.RadiusM
		if r <= 0 {
			r = s.Map.CellMeters / 2
		}
		if CellDist(p, loc.Anchor)*s.Map.CellMeters <= r && derive.TideBlocks(loc.TideAccess, tide) {
			return id
		}
	}
	return ""
}

// travelEstimate computes trip minutes using the harsher of origin and
// destination terrain.
func (s *State) travelEstimate(from Pos, dest *Location, pace string, w derive.Weather, tune tuning.Tuning) int {
	distM := CellDist(from, dest.Anchor) * s.Map.CellMeters
	origin := "grass"
	if l := s.LocationAt(from); l != nil {
		origin = l.Terrain
	}
	return derive.TravelMinutes(distM, origin, dest.Terrain, w, pace, s.speeds(tune))
}

func (s *State) entityExists(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.Actors[id]; ok {
		return true
	}
	if _, ok := s.Items[id]; ok {
		return true
	}
	_, ok := s.Locations[id]
	return ok
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
