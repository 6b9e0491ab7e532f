package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the non-content knobs of the simulation. It is captured into
// every session snapshot so replays use the exact values the session ran with.
type Tuning struct {
	StartHour              int `yaml:"start_hour" json:"start_hour"`
	TideCycleMinutes       int `yaml:"tide_cycle_minutes" json:"tide_cycle_minutes"`
	WeatherRecomputeMins   int `yaml:"weather_recompute_minutes" json:"weather_recompute_minutes"`
	LongTravelThresholdMin int `yaml:"long_travel_threshold_minutes" json:"long_travel_threshold_minutes"`
	MaxAdvanceMinutes      int `yaml:"max_advance_minutes" json:"max_advance_minutes"`

	VisibilityRadiusM float64 `yaml:"visibility_radius_m" json:"visibility_radius_m"`
	ExploreRadiusM    float64 `yaml:"explore_radius_m" json:"explore_radius_m"`
	PickupRadiusM     float64 `yaml:"pickup_radius_m" json:"pickup_radius_m"`
	TravelStopMarginM float64 `yaml:"travel_stop_margin_m" json:"travel_stop_margin_m"`

	BaseMoveM        float64 `yaml:"base_move_m" json:"base_move_m"`
	MinMoveM         float64 `yaml:"min_move_m" json:"min_move_m"`
	WalkSpeedMPerMin float64 `yaml:"walk_speed_m_per_min" json:"walk_speed_m_per_min"`
	RunSpeedMPerMin  float64 `yaml:"run_speed_m_per_min" json:"run_speed_m_per_min"`

	ClimateZone string `yaml:"climate_zone" json:"climate_zone"`

	MaxToolIterations int `yaml:"max_tool_iterations" json:"max_tool_iterations"`
}

func Defaults() Tuning {
	return Tuning{
		StartHour:              8,
		TideCycleMinutes:       720,
		WeatherRecomputeMins:   180,
		LongTravelThresholdMin: 120,
		MaxAdvanceMinutes:      480,
		VisibilityRadiusM:      120,
		ExploreRadiusM:         300,
		PickupRadiusM:          10,
		TravelStopMarginM:      25,
		BaseMoveM:              600,
		MinMoveM:               200,
		WalkSpeedMPerMin:       80,
		RunSpeedMPerMin:        150,
		ClimateZone:            "temperate",
		MaxToolIterations:      8,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TideCycleMinutes <= 0 {
		return fmt.Errorf("tide_cycle_minutes must be positive, got %d", t.TideCycleMinutes)
	}
	if t.WeatherRecomputeMins <= 0 {
		return fmt.Errorf("weather_recompute_minutes must be positive, got %d", t.WeatherRecomputeMins)
	}
	if t.WalkSpeedMPerMin <= 0 || t.RunSpeedMPerMin <= 0 {
		return fmt.Errorf("speeds must be positive")
	}
	if t.MaxToolIterations <= 0 {
		return fmt.Errorf("max_tool_iterations must be positive, got %d", t.MaxToolIterations)
	}
	return nil
}
