package derive

import "fmt"

// Pressure regimes.
const (
	PressureHigh   = "high"
	PressureLow    = "low"
	PressureFront  = "front"
	PressureStable = "stable"
)

// Weather types.
const (
	WeatherClear   = "clear"
	WeatherCloudy  = "cloudy"
	WeatherMist    = "mist"
	WeatherDrizzle = "drizzle"
	WeatherRain    = "rain"
	WeatherWindy   = "windy"
	WeatherStorm   = "storm"
)

type WeatherConfig struct {
	Zone          string `json:"zone"` // "temperate", "tropical", "cold"
	Seed          int64  `json:"seed"`
	RecomputeMins int    `json:"recompute_minutes"`
}

type Weather struct {
	Bucket       int64    `json:"bucket"`
	Pressure     string   `json:"pressure"`
	Type         string   `json:"type"`
	Intensity    int      `json:"intensity"` // 0..5
	TemperatureC int      `json:"temperature_c"`
	WindKph      int      `json:"wind_kph"`
	Signals      []string `json:"signals"`
	// TravelMultiplier is the movement cost factor implied by this weather.
	TravelMultiplier float64 `json:"travel_multiplier"`
}

// WeatherAt derives the weather for the recompute bucket containing
// elapsedMinutes. The generator is reseeded per bucket from "seed:bucket",
// so the result is stable within a cadence window.
func WeatherAt(elapsedMinutes int, anchor TimeAnchor, cfg WeatherConfig) Weather {
	cadence := cfg.RecomputeMins
	if cadence <= 0 {
		cadence = 180
	}
	bucket := int64(elapsedMinutes / cadence)
	g := newLCG(cfg.Seed, bucket)

	season := seasonOf(TimeAt(int(bucket)*cadence, anchor).Day)
	pressure := pickPressure(g, season)
	wtype := pickType(g, pressure)
	intensity := pickIntensity(g, wtype)
	tm := TimeAt(elapsedMinutes, anchor)

	w := Weather{
		Bucket:           bucket,
		Pressure:         pressure,
		Type:             wtype,
		Intensity:        intensity,
		TemperatureC:     temperature(cfg.Zone, wtype, IsDaylight(tm.Hour)),
		WindKph:          wind(g, wtype, intensity),
		TravelMultiplier: travelMultiplier(wtype, intensity),
	}
	w.Signals = signals(w)
	return w
}

func seasonOf(day int) int {
	return ((day - 1) / 90) % 4 // 0 spring, 1 summer, 2 autumn, 3 winter
}

func pickPressure(g *lcg, season int) string {
	// Weights: high, low, front, stable. Winters lean low/front, summers high.
	var w []float64
	switch season {
	case 1: // summer
		w = []float64{0.40, 0.15, 0.10, 0.35}
	case 3: // winter
		w = []float64{0.15, 0.35, 0.30, 0.20}
	default: // spring/autumn
		w = []float64{0.25, 0.25, 0.20, 0.30}
	}
	return []string{PressureHigh, PressureLow, PressureFront, PressureStable}[g.pick(w)]
}

func pickType(g *lcg, pressure string) string {
	switch pressure {
	case PressureHigh:
		return []string{WeatherClear, WeatherCloudy, WeatherWindy}[g.pick([]float64{0.5, 0.3, 0.2})]
	case PressureStable:
		return []string{WeatherClear, WeatherCloudy, WeatherMist}[g.pick([]float64{0.4, 0.4, 0.2})]
	case PressureLow:
		return []string{WeatherRain, WeatherDrizzle, WeatherStorm, WeatherCloudy}[g.pick([]float64{0.4, 0.25, 0.2, 0.15})]
	default: // front
		return []string{WeatherStorm, WeatherRain, WeatherWindy, WeatherCloudy}[g.pick([]float64{0.35, 0.35, 0.2, 0.1})]
	}
}

func pickIntensity(g *lcg, wtype string) int {
	switch wtype {
	case WeatherStorm:
		return 3 + g.intn(3) // 3..5
	case WeatherRain:
		return 1 + g.intn(4) // 1..4
	case WeatherDrizzle, WeatherMist, WeatherWindy:
		return 1 + g.intn(2) // 1..2
	case WeatherCloudy:
		return g.intn(2) // 0..1
	default:
		return 0
	}
}

func temperature(zone, wtype string, daylight bool) int {
	base := 12
	switch zone {
	case "tropical":
		base = 26
	case "cold":
		base = 2
	}
	if !daylight {
		base -= 5
	}
	switch wtype {
	case WeatherStorm:
		base -= 4
	case WeatherRain, WeatherDrizzle:
		base -= 2
	case WeatherClear:
		if daylight {
			base += 2
		}
	}
	return base
}

func wind(g *lcg, wtype string, intensity int) int {
	switch wtype {
	case WeatherStorm:
		return 40 + g.intn(51) // 40..90
	case WeatherWindy:
		return 25 + g.intn(26) // 25..50
	case WeatherRain:
		return 10 + g.intn(21) + intensity // 10..34
	default:
		return g.intn(16) // 0..15
	}
}

func travelMultiplier(wtype string, intensity int) float64 {
	switch wtype {
	case WeatherStorm:
		return 1.5 + 0.1*float64(intensity)
	case WeatherRain:
		return 1.25 + 0.05*float64(intensity)
	case WeatherMist:
		return 1.2
	case WeatherWindy:
		return 1.15
	case WeatherDrizzle:
		return 1.1
	default:
		return 1.0
	}
}

// signals emits the categorical flags downstream consumers read instead of
// re-deriving thresholds themselves.
func signals(w Weather) []string {
	var out []string
	switch {
	case w.Type == WeatherStorm:
		out = append(out, "storm_risk:high")
	case w.Pressure == PressureFront || w.Pressure == PressureLow:
		out = append(out, "storm_risk:moderate")
	default:
		out = append(out, "storm_risk:low")
	}
	if w.Type == WeatherMist || (w.Type == WeatherStorm && w.Intensity >= 3) || (w.Type == WeatherRain && w.Intensity >= 4) {
		out = append(out, "visibility:poor")
	} else {
		out = append(out, "visibility:good")
	}
	if w.WindKph >= 40 {
		out = append(out, "wind:strong")
	}
	return out
}

func (w Weather) String() string {
	return fmt.Sprintf("%s (intensity %d, %d°C, wind %d kph)", w.Type, w.Intensity, w.TemperatureC, w.WindKph)
}
