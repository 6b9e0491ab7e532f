package world

import (
	"fmt"
	"sort"

	"tidecraft.ai/internal/sim/derive"
	"tidecraft.ai/internal/sim/tuning"
)

// Telemetry is the read-only, player-facing projection built for narration
// and UI. It contains nothing the player has not perceived.
type Telemetry struct {
	Turn       int            `json:"turn"`
	ActorID    string         `json:"actor_id"`
	Position   Pos            `json:"position"`
	LocationID string         `json:"location_id,omitempty"`
	Location   string         `json:"location,omitempty"`
	Inventory  []ItemRef      `json:"inventory,omitempty"`
	Time       derive.Time    `json:"time"`
	Tide       derive.Tide    `json:"tide"`
	Weather    derive.Weather `json:"weather"`
	MaxMoveM   float64        `json:"max_move_m"`
	Advisories []string       `json:"advisories,omitempty"`
	Prompt     *PendingPrompt `json:"prompt,omitempty"`
}

type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Observation is the game-master-facing superset: everything telemetry has
// plus nearby entities, known places, and the ledger tail.
type Observation struct {
	Telemetry
	NearbyActors   []ActorRef    `json:"nearby_actors,omitempty"`
	NearbyItems    []ItemRef     `json:"nearby_items,omitempty"`
	KnownLocations []LocationRef `json:"known_locations,omitempty"`
	RecentLedger   []LedgerEntry `json:"recent_ledger,omitempty"`
}

type ActorRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	Pos  Pos    `json:"pos"`
}

type LocationRef struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Anchor     Pos     `json:"anchor"`
	TideAccess string  `json:"tide_access"`
	Terrain    string  `json:"terrain"`
	DistM      float64 `json:"dist_m"`
	Blocked    bool    `json:"blocked"`
}

func BuildTelemetry(s *State, actorID string, tune tuning.Tuning) Telemetry {
	b := s.Derived(tune)
	t := Telemetry{
		Turn:     s.Meta.Turn,
		ActorID:  actorID,
		Time:     b.Time,
		Tide:     b.Tide,
		Weather:  b.Weather,
		MaxMoveM: b.Constraints.MaxMoveMeters,
		Prompt:   s.Meta.Prompt,
	}
	actor := s.Actors[actorID]
	if actor == nil {
		return t
	}
	t.Position = actor.Pos
	if loc := s.LocationAt(actor.Pos); loc != nil {
		t.LocationID = loc.ID
		t.Location = loc.Name
	}
	for _, id := range actor.Inventory {
		if it := s.Items[id]; it != nil {
			t.Inventory = append(t.Inventory, ItemRef{ID: it.ID, Name: it.Name})
		}
	}
	for _, id := range b.Constraints.Blocked {
		if loc := s.Locations[id]; loc != nil {
			t.Advisories = append(t.Advisories, fmt.Sprintf("%s is cut off by the tide", loc.Name))
		}
	}
	return t
}

func BuildObservation(s *State, actorID string, tune tuning.Tuning) Observation {
	obs := Observation{Telemetry: BuildTelemetry(s, actorID, tune)}
	actor := s.Actors[actorID]
	if actor == nil {
		return obs
	}
	b := s.Derived(tune)
	blocked := map[string]bool{}
	for _, id := range b.Constraints.Blocked {
		blocked[id] = true
	}
	for _, id := range s.sortedActorIDs() {
		other := s.Actors[id]
		if id == actorID {
			continue
		}
		if CellDist(actor.Pos, other.Pos)*s.Map.CellMeters <= tune.VisibilityRadiusM {
			obs.NearbyActors = append(obs.NearbyActors, ActorRef{ID: id, Kind: other.Kind, Name: other.Name, Pos: other.Pos})
		}
	}
	for _, id := range s.sortedItemIDs() {
		it := s.Items[id]
		if it.Place.Kind != PlaceGround || it.Place.Pos == nil {
			continue
		}
		if CellDist(actor.Pos, *it.Place.Pos)*s.Map.CellMeters <= tune.VisibilityRadiusM {
			obs.NearbyItems = append(obs.NearbyItems, ItemRef{ID: it.ID, Name: it.Name})
		}
	}
	known := s.knowledgeFor(actorID).Locations
	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		loc := s.Locations[id]
		if loc == nil {
			continue
		}
		obs.KnownLocations = append(obs.KnownLocations, LocationRef{
			ID:         id,
			Name:       loc.Name,
			Anchor:     loc.Anchor,
			TideAccess: loc.TideAccess,
			Terrain:    loc.Terrain,
			DistM:      CellDist(actor.Pos, loc.Anchor) * s.Map.CellMeters,
			Blocked:    blocked[id],
		})
	}
	tail := len(s.Ledger) - 8
	if tail < 0 {
		tail = 0
	}
	obs.RecentLedger = append(obs.RecentLedger, s.Ledger[tail:]...)
	return obs
}
