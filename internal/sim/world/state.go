package world

import (
	"sort"

	"tidecraft.ai/internal/sim/derive"
)

// State is the single source of truth for one session. It is only ever
// replaced wholesale by the turn engine's commit step; callers never mutate
// a committed instance in place.
type State struct {
	Meta      Meta                  `json:"meta"`
	Map       MapBounds             `json:"map"`
	Actors    map[string]*Actor     `json:"actors"`
	Items     map[string]*Item      `json:"items"`
	Locations map[string]*Location  `json:"locations"`
	Systems   Systems               `json:"systems"`
	Ledger    []LedgerEntry         `json:"ledger"`
	Knowledge map[string]*Knowledge `json:"knowledge"`
}

type Meta struct {
	WorldID       string            `json:"world_id"`
	Seed          int64             `json:"seed"`
	SchemaVersion string            `json:"schema_version"`
	Turn          int               `json:"turn"`
	Flags         map[string]string `json:"flags,omitempty"`
	// Prompt is the single pending clarification raised toward the player,
	// e.g. the long-travel confirmation handshake. At most one at a time.
	Prompt *PendingPrompt `json:"prompt,omitempty"`
}

type PendingPrompt struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Question   string            `json:"question"`
	Options    []string          `json:"options,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	RaisedTurn int               `json:"raised_turn"`
}

type MapBounds struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
	// CellMeters converts cell distance to real distance.
	CellMeters float64 `json:"cell_meters"`
}

func (m MapBounds) Contains(p Pos) bool {
	return p.X >= m.MinX && p.X <= m.MaxX && p.Y >= m.MinY && p.Y <= m.MaxY
}

type Actor struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"` // ActorPlayer or ActorNPC
	Name      string   `json:"name"`
	Pos       Pos      `json:"pos"`
	Inventory []string `json:"inventory,omitempty"`
	// Persona is consumed only by the NPC/narrator boundary.
	Persona *Persona `json:"persona,omitempty"`
}

type Persona struct {
	Name       string   `json:"name"`
	Background string   `json:"background,omitempty"`
	Voice      string   `json:"voice,omitempty"`
	Goals      []string `json:"goals,omitempty"`
}

// Place kinds. An item is in exactly one place at any time.
const (
	PlaceGround    = "ground"
	PlaceInventory = "inventory"
	PlaceContainer = "container"
)

type Place struct {
	Kind        string `json:"kind"`
	Pos         *Pos   `json:"pos,omitempty"`          // ground
	ActorID     string `json:"actor_id,omitempty"`     // inventory
	ContainerID string `json:"container_id,omitempty"` // container
}

type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Place Place  `json:"place"`
}

type Location struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Anchor      Pos     `json:"anchor"`
	RadiusM     float64 `json:"radius_m,omitempty"`
	TideAccess  string  `json:"tide_access"` // derive.AccessAlways/Low/High
	Terrain     string  `json:"terrain"`
}

type Systems struct {
	ElapsedMinutes   int                  `json:"elapsed_minutes"`
	Anchor           derive.TimeAnchor    `json:"anchor"`
	TideCycleMinutes int                  `json:"tide_cycle_minutes"`
	Weather          derive.WeatherConfig `json:"weather"`
}

type LedgerEntry struct {
	Turn int    `json:"turn"`
	Text string `json:"text"`
}

// Knowledge is one actor's monotonically growing perception record.
type Knowledge struct {
	Locations map[string]bool `json:"locations,omitempty"`
	Actors    map[string]bool `json:"actors,omitempty"`
	Items     map[string]bool `json:"items,omitempty"`
	Notes     []string        `json:"notes,omitempty"`
}

func newKnowledge() *Knowledge {
	return &Knowledge{
		Locations: map[string]bool{},
		Actors:    map[string]bool{},
		Items:     map[string]bool{},
	}
}

// PlayerActor returns the lexically first player-kind actor.
func (s *State) PlayerActor() *Actor {
	ids := make([]string, 0, len(s.Actors))
	for id, a := range s.Actors {
		if a != nil && a.Kind == ActorPlayer {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return s.Actors[ids[0]]
}

// LocationAt returns the location whose radius contains p, or nil. Prefers
// the nearest anchor when radii overlap.
func (s *State) LocationAt(p Pos) *Location {
	var best *Location
	bestDist := 0.0
	for _, id := range s.sortedLocationIDs() {
		loc := s.Locations[id]
		d := CellDist(p, loc.Anchor) * s.Map.CellMeters
		r := loc.RadiusM
		if r <= 0 {
			r = s.Map.CellMeters / 2
		}
		if d <= r && (best == nil || d < bestDist) {
			best = loc
			bestDist = d
		}
	}
	return best
}

func (s *State) sortedLocationIDs() []string {
	ids := make([]string, 0, len(s.Locations))
	for id := range s.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *State) sortedActorIDs() []string {
	ids := make([]string, 0, len(s.Actors))
	for id := range s.Actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *State) sortedItemIDs() []string {
	ids := make([]string, 0, len(s.Items))
	for id := range s.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *State) knowledgeFor(actorID string) *Knowledge {
	if s.Knowledge == nil {
		s.Knowledge = map[string]*Knowledge{}
	}
	k := s.Knowledge[actorID]
	if k == nil {
		k = newKnowledge()
		s.Knowledge[actorID] = k
	}
	if k.Locations == nil {
		k.Locations = map[string]bool{}
	}
	if k.Actors == nil {
		k.Actors = map[string]bool{}
	}
	if k.Items == nil {
		k.Items = map[string]bool{}
	}
	return k
}

// appendLedger records a narrative-audit line for the current turn.
func (s *State) appendLedger(text string) {
	s.Ledger = append(s.Ledger, LedgerEntry{Turn: s.Meta.Turn, Text: text})
}
