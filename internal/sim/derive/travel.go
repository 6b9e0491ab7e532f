package derive

import "math"

// Travel paces.
const (
	PaceWalk = "walk"
	PaceRun  = "run"
)

// terrainMultipliers scale travel cost per terrain tag. Roads are cheapest,
// water and mountains most expensive. Unknown tags cost as open ground.
var terrainMultipliers = map[string]float64{
	"road":     0.8,
	"grass":    1.0,
	"sand":     1.0,
	"forest":   1.3,
	"rock":     1.5,
	"marsh":    1.6,
	"mountain": 2.0,
	"water":    2.5,
}

func TerrainMultiplier(terrain string) float64 {
	if m, ok := terrainMultipliers[terrain]; ok {
		return m
	}
	return 1.0
}

// Speeds carries the pace-dependent base speeds in meters per minute.
type Speeds struct {
	WalkMPerMin float64
	RunMPerMin  float64
}

// TravelMinutes estimates trip time: distance times the harsher of the two
// terrain multipliers times the weather multiplier, divided by the pace
// speed. Always at least one minute for a nonzero distance.
func TravelMinutes(distMeters float64, originTerrain, destTerrain string, w Weather, pace string, sp Speeds) int {
	if distMeters <= 0 {
		return 0
	}
	mult := math.Max(TerrainMultiplier(originTerrain), TerrainMultiplier(destTerrain)) * w.TravelMultiplier
	speed := sp.WalkMPerMin
	if pace == PaceRun {
		speed = sp.RunMPerMin
	}
	if speed <= 0 {
		speed = 1
	}
	minutes := int(math.Ceil(distMeters * mult / speed))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
