package world

import (
	"tidecraft.ai/internal/sim/derive"
	"tidecraft.ai/internal/sim/tuning"
)

// NewWorld builds the default tidal-coast starting world for a fresh
// session. Content here is the built-in scenario; campaigns with authored
// tables would construct State directly.
func NewWorld(worldID string, seed int64, schemaVersion string, tune tuning.Tuning) *State {
	s := &State{
		Meta: Meta{
			WorldID:       worldID,
			Seed:          seed,
			SchemaVersion: schemaVersion,
			Turn:          0,
		},
		Map: MapBounds{
			MinX: -40, MinY: -40, MaxX: 40, MaxY: 40,
			CellMeters: 50,
		},
		Systems: Systems{
			ElapsedMinutes:   0,
			Anchor:           derive.TimeAnchor{StartHour: tune.StartHour},
			TideCycleMinutes: tune.TideCycleMinutes,
			Weather: derive.WeatherConfig{
				Zone:          tune.ClimateZone,
				Seed:          seed,
				RecomputeMins: tune.WeatherRecomputeMins,
			},
		},
		Actors:    map[string]*Actor{},
		Items:     map[string]*Item{},
		Locations: map[string]*Location{},
		Knowledge: map[string]*Knowledge{},
	}

	s.Locations["fisher_quay"] = &Location{
		ID: "fisher_quay", Name: "Fisher's Quay",
		Description: "A weathered stone quay where the village boats tie up.",
		Anchor:      Pos{X: 0, Y: 0}, RadiusM: 150,
		TideAccess: derive.AccessAlways, Terrain: "road",
	}
	s.Locations["heather_downs"] = &Location{
		ID: "heather_downs", Name: "Heather Downs",
		Description: "Rolling heath above the village, loud with skylarks.",
		Anchor:      Pos{X: -6, Y: 8}, RadiusM: 200,
		TideAccess: derive.AccessAlways, Terrain: "grass",
	}
	s.Locations["mirrorpool_cave"] = &Location{
		ID: "mirrorpool_cave", Name: "Mirrorpool Cave",
		Description: "A sea cave whose mouth drowns at anything above low water.",
		Anchor:      Pos{X: 10, Y: -12}, RadiusM: 80,
		TideAccess: derive.AccessLow, Terrain: "rock",
	}
	s.Locations["blackreef_causeway"] = &Location{
		ID: "blackreef_causeway", Name: "Blackreef Causeway",
		Description: "A cobbled spit out to the reef islet, passable only at low tide.",
		Anchor:      Pos{X: 18, Y: 4}, RadiusM: 120,
		TideAccess: derive.AccessLow, Terrain: "road",
	}
	s.Locations["gullwing_stacks"] = &Location{
		ID: "gullwing_stacks", Name: "Gullwing Stacks",
		Description: "Pillars offshore; a skiff can reach them only on a full tide.",
		Anchor:      Pos{X: -20, Y: -18}, RadiusM: 100,
		TideAccess: derive.AccessHigh, Terrain: "water",
	}
	s.Locations["warden_tower"] = &Location{
		ID: "warden_tower", Name: "The Warden's Tower",
		Description: "A squat watchtower on the far headland, a long walk north.",
		Anchor:      Pos{X: -2, Y: 34}, RadiusM: 90,
		TideAccess: derive.AccessAlways, Terrain: "mountain",
	}

	s.Actors["player"] = &Actor{
		ID: "player", Kind: ActorPlayer, Name: "the Wanderer",
		Pos: Pos{X: 0, Y: 0},
	}
	s.Actors["maren"] = &Actor{
		ID: "maren", Kind: ActorNPC, Name: "Maren",
		Pos: Pos{X: 1, Y: 0},
		Persona: &Persona{
			Name:       "Maren",
			Background: "Keeper of the tide charts; has lived on the quay her whole life.",
			Voice:      "dry, clipped, kind underneath",
			Goals:      []string{"keep boats off the reef", "find who douses the tower light"},
		},
	}
	s.Actors["cormac"] = &Actor{
		ID: "cormac", Kind: ActorNPC, Name: "Old Cormac",
		Pos: Pos{X: -5, Y: 7},
		Persona: &Persona{
			Name:       "Old Cormac",
			Background: "Retired pilot who swears the Mirrorpool sings before a storm.",
			Voice:      "rambling, superstitious",
		},
	}

	lanternPos := Pos{X: 1, Y: 1}
	s.Items["storm_lantern"] = &Item{
		ID: "storm_lantern", Name: "storm lantern",
		Place: Place{Kind: PlaceGround, Pos: &lanternPos},
	}
	s.Items["tide_charts"] = &Item{
		ID: "tide_charts", Name: "bundle of tide charts",
		Place: Place{Kind: PlaceInventory, ActorID: "maren"},
	}
	s.Actors["maren"].Inventory = []string{"tide_charts"}
	s.Items["sea_glass"] = &Item{
		ID: "sea_glass", Name: "piece of green sea glass",
		Place: Place{Kind: PlaceContainer, ContainerID: "quay_lockbox"},
	}

	// The player starts knowing their immediate surroundings.
	RefreshKnowledge(s, "player", tune.VisibilityRadiusM)
	s.appendLedger("The Wanderer comes ashore at Fisher's Quay.")
	return s
}
