package world

import (
	"tidecraft.ai/internal/sim/derive"
	"tidecraft.ai/internal/sim/tuning"
)

// Bundle is the full derived view of a state at its current elapsed time.
// It is recomputed, never stored: identical state always yields an identical
// bundle.
type Bundle struct {
	Time        derive.Time
	Tide        derive.Tide
	Weather     derive.Weather
	Constraints derive.Constraints
}

// Derived computes the bundle for the state's current elapsed minutes.
func (s *State) Derived(tune tuning.Tuning) Bundle {
	return s.DerivedAt(s.Systems.ElapsedMinutes, tune)
}

// DerivedAt computes the bundle for an arbitrary elapsed-minutes value, used
// for arrival-time tide checks.
func (s *State) DerivedAt(elapsed int, tune tuning.Tuning) Bundle {
	tide := derive.TideAt(elapsed, s.Systems.TideCycleMinutes)
	weather := derive.WeatherAt(elapsed, s.Systems.Anchor, s.Systems.Weather)
	refs := make([]derive.LocationRef, 0, len(s.Locations))
	for _, id := range s.sortedLocationIDs() {
		refs = append(refs, derive.LocationRef{ID: id, TideAccess: s.Locations[id].TideAccess})
	}
	return Bundle{
		Time:        derive.TimeAt(elapsed, s.Systems.Anchor),
		Tide:        tide,
		Weather:     weather,
		Constraints: derive.ConstraintsAt(weather, tide, refs, tune.BaseMoveM, tune.MinMoveM),
	}
}

func (s *State) speeds(tune tuning.Tuning) derive.Speeds {
	return derive.Speeds{WalkMPerMin: tune.WalkSpeedMPerMin, RunMPerMin: tune.RunSpeedMPerMin}
}
