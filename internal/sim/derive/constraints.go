package derive

import "sort"

// LocationRef is the slice of location state the constraints calculator
// needs, kept free of the world package to avoid an import cycle.
type LocationRef struct {
	ID         string
	TideAccess string
}

// Constraints are the turn-level movement limits derived from weather and
// tide. MaxMoveMeters is floored so movement is never fully frozen; Blocked
// lists tide-blocked location ids as advisories, sorted for determinism.
type Constraints struct {
	MaxMoveMeters float64  `json:"max_move_meters"`
	Blocked       []string `json:"blocked,omitempty"`
}

func ConstraintsAt(w Weather, tide Tide, locs []LocationRef, baseMoveM, minMoveM float64) Constraints {
	maxMove := baseMoveM / w.TravelMultiplier
	if maxMove < minMoveM {
		maxMove = minMoveM
	}
	var blocked []string
	for _, l := range locs {
		if TideBlocks(l.TideAccess, tide) {
			blocked = append(blocked, l.ID)
		}
	}
	sort.Strings(blocked)
	return Constraints{MaxMoveMeters: maxMove, Blocked: blocked}
}
