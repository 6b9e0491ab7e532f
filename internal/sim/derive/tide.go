package derive

import "math"

// Tide phases.
const (
	TideLow     = "low"
	TideRising  = "rising"
	TideHigh    = "high"
	TideFalling = "falling"
)

// Location tide-access rules.
const (
	AccessAlways = "always"
	AccessLow    = "low"
	AccessHigh   = "high"
)

type Tide struct {
	Level         float64 `json:"level"` // 0..1
	Phase         string  `json:"phase"`
	MinutesToTurn int     `json:"minutes_to_turn"` // until next quarter-cycle boundary
}

// TideAt models the water level as 0.5 + 0.5*sin(2*pi*t/cycle). The phase is
// classified from the 0.25/0.75 level thresholds and the sign of the
// derivative.
func TideAt(elapsedMinutes, cycleMinutes int) Tide {
	if cycleMinutes <= 0 {
		return Tide{Level: 0.5, Phase: TideRising}
	}
	t := float64(elapsedMinutes%cycleMinutes) / float64(cycleMinutes)
	angle := 2 * math.Pi * t
	level := 0.5 + 0.5*math.Sin(angle)
	rising := math.Cos(angle) >= 0

	var phase string
	switch {
	case level >= 0.75:
		phase = TideHigh
	case level <= 0.25:
		phase = TideLow
	case rising:
		phase = TideRising
	default:
		phase = TideFalling
	}

	quarter := cycleMinutes / 4
	toTurn := quarter
	if quarter > 0 {
		if rem := elapsedMinutes % quarter; rem != 0 {
			toTurn = quarter - rem
		}
	}
	return Tide{Level: level, Phase: phase, MinutesToTurn: toTurn}
}

// TideBlocks reports whether a location with the given tide-access rule is
// unreachable at the given tide. "low" means reachable only when the tide is
// at or approaching low water; "high" the mirror case.
func TideBlocks(access string, tide Tide) bool {
	switch access {
	case AccessLow:
		return tide.Phase != TideLow && tide.Phase != TideFalling
	case AccessHigh:
		return tide.Phase != TideHigh && tide.Phase != TideRising
	default:
		return false
	}
}
