package world

import (
	"strings"
	"testing"

	"tidecraft.ai/internal/sim/tuning"
)

func testWorld(t *testing.T) (*State, tuning.Tuning) {
	t.Helper()
	tune := tuning.Defaults()
	// Must match protocol.SchemaVersion; importing protocol here would
	// create an import cycle, since protocol imports this package.
	return NewWorld("test", 1337, "tc1.0", tune), tune
}

func TestValidate_TideGating(t *testing.T) {
	s, tune := testWorld(t)

	// 90 minutes into a 720-minute cycle: high water, the cave is shut.
	s.Systems.ElapsedMinutes = 90
	ev := Event{Kind: EvTravel, Actor: "player", LocationID: "mirrorpool_cave"}
	if reason := Validate(s, ev, tune); reason != RejectTideBlocksPrefix+"mirrorpool_cave" {
		t.Fatalf("high water: got %q", reason)
	}

	// 540 minutes: dead low water, travel goes through.
	s.Systems.ElapsedMinutes = 540
	if reason := Validate(s, ev, tune); reason != "" {
		t.Fatalf("low water: got %q, want accept", reason)
	}
}

func TestValidate_MoveBudgetAndBounds(t *testing.T) {
	s, tune := testWorld(t)

	// Within budget and bounds.
	ev := Event{Kind: EvMove, Actor: "player", To: &Pos{X: 2, Y: 2}}
	if reason := Validate(s, ev, tune); reason != "" {
		t.Fatalf("short move: got %q", reason)
	}

	// Far beyond any turn budget (max possible is BaseMoveM).
	ev.To = &Pos{X: 40, Y: 40}
	if reason := Validate(s, ev, tune); reason != RejectMoveExceedsLimit {
		t.Fatalf("long move: got %q", reason)
	}

	ev.To = &Pos{X: 500, Y: 0}
	if reason := Validate(s, ev, tune); reason != RejectOutOfBounds {
		t.Fatalf("out of bounds: got %q", reason)
	}

	ev = Event{Kind: EvMove, Actor: "nobody", To: &Pos{X: 1, Y: 1}}
	if reason := Validate(s, ev, tune); reason != RejectActorNotFound {
		t.Fatalf("missing actor: got %q", reason)
	}

	ev = Event{Kind: EvMove, Actor: "player"}
	if reason := Validate(s, ev, tune); reason != RejectMissingTarget {
		t.Fatalf("no target: got %q", reason)
	}
}

func TestValidate_MoveIntoTideBlockedRadius(t *testing.T) {
	s, tune := testWorld(t)
	s.Systems.ElapsedMinutes = 90 // high water
	s.Actors["player"].Pos = Pos{X: 10, Y: -9}

	ev := Event{Kind: EvMove, Actor: "player", To: &Pos{X: 10, Y: -12}}
	reason := Validate(s, ev, tune)
	if !strings.HasPrefix(reason, RejectTideBlocksPrefix) {
		t.Fatalf("move into drowned cave: got %q", reason)
	}
}

func TestValidate_LongTravelHandshake(t *testing.T) {
	s, tune := testWorld(t)
	tune.LongTravelThresholdMin = 10 // make the tower trip "long"

	ev := Event{Kind: EvTravel, Actor: "player", LocationID: "warden_tower"}
	if reason := Validate(s, ev, tune); reason != RejectNeedsConfirmation {
		t.Fatalf("unconfirmed long travel: got %q", reason)
	}

	// A pending prompt for a different destination does not confirm it.
	s.Meta.Prompt = &PendingPrompt{
		ID:   "p1",
		Kind: "confirm_travel",
		Data: map[string]string{"location_id": "heather_downs"},
	}
	ev.Confirm = "p1"
	if reason := Validate(s, ev, tune); reason != RejectNeedsConfirmation {
		t.Fatalf("mismatched destination: got %q", reason)
	}

	// Matching prompt id and destination: accepted.
	s.Meta.Prompt.Data["location_id"] = "warden_tower"
	if reason := Validate(s, ev, tune); reason != "" {
		t.Fatalf("confirmed long travel: got %q", reason)
	}

	// Wrong token: rejected.
	ev.Confirm = "p2"
	if reason := Validate(s, ev, tune); reason != RejectNeedsConfirmation {
		t.Fatalf("wrong token: got %q", reason)
	}
}

func TestValidate_PickupAndDrop(t *testing.T) {
	s, tune := testWorld(t)

	// The lantern lies one cell from the player: 70m, beyond pickup reach.
	ev := Event{Kind: EvPickupItem, Actor: "player", ItemID: "storm_lantern"}
	if reason := Validate(s, ev, tune); reason != RejectItemTooFar {
		t.Fatalf("distant pickup: got %q", reason)
	}

	s.Actors["player"].Pos = Pos{X: 1, Y: 1}
	if reason := Validate(s, ev, tune); reason != "" {
		t.Fatalf("adjacent pickup: got %q", reason)
	}

	// Items in another actor's hands or in containers are not on the ground.
	ev.ItemID = "tide_charts"
	if reason := Validate(s, ev, tune); reason != RejectItemNotOnGround {
		t.Fatalf("pickup from inventory: got %q", reason)
	}
	ev.ItemID = "sea_glass"
	if reason := Validate(s, ev, tune); reason != RejectItemNotOnGround {
		t.Fatalf("pickup from container: got %q", reason)
	}
	ev.ItemID = "no_such_item"
	if reason := Validate(s, ev, tune); reason != RejectItemNotFound {
		t.Fatalf("missing item: got %q", reason)
	}

	// Drop requires actual possession.
	ev = Event{Kind: EvDropItem, Actor: "player", ItemID: "storm_lantern"}
	if reason := Validate(s, ev, tune); reason != RejectItemNotInInventory {
		t.Fatalf("drop without holding: got %q", reason)
	}
	ev = Event{Kind: EvDropItem, Actor: "maren", ItemID: "tide_charts"}
	if reason := Validate(s, ev, tune); reason != "" {
		t.Fatalf("drop held item: got %q", reason)
	}
}

func TestValidate_TimeAndSpeech(t *testing.T) {
	s, tune := testWorld(t)

	if reason := Validate(s, Event{Kind: EvAdvanceTime, Minutes: 0}, tune); reason != RejectInvalidMinutes {
		t.Fatalf("zero minutes: got %q", reason)
	}
	if reason := Validate(s, Event{Kind: EvAdvanceTime, Minutes: tune.MaxAdvanceMinutes + 1}, tune); reason != RejectInvalidMinutes {
		t.Fatalf("oversized advance: got %q", reason)
	}
	if reason := Validate(s, Event{Kind: EvAdvanceTime, Minutes: 60}, tune); reason != "" {
		t.Fatalf("valid advance: got %q", reason)
	}

	if reason := Validate(s, Event{Kind: EvSpeak, Actor: "player"}, tune); reason != RejectEmptyText {
		t.Fatalf("empty speech: got %q", reason)
	}
	if reason := Validate(s, Event{Kind: "dance"}, tune); reason != RejectUnknownKind {
		t.Fatalf("unknown kind: got %q", reason)
	}
}

func TestValidate_CreateEntity(t *testing.T) {
	s, tune := testWorld(t)

	if reason := Validate(s, Event{Kind: EvCreateEntity}, tune); reason != RejectInvalidEntity {
		t.Fatalf("empty create: got %q", reason)
	}

	dup := Event{Kind: EvCreateEntity, NewItem: &Item{ID: "storm_lantern", Name: "another lantern", Place: Place{Kind: PlaceContainer, ContainerID: "c"}}}
	if reason := Validate(s, dup, tune); reason != RejectDuplicateID {
		t.Fatalf("duplicate id: got %q", reason)
	}

	outside := Pos{X: 400, Y: 0}
	far := Event{Kind: EvCreateEntity, NewItem: &Item{ID: "x", Name: "x", Place: Place{Kind: PlaceGround, Pos: &outside}}}
	if reason := Validate(s, far, tune); reason != RejectOutOfBounds {
		t.Fatalf("out-of-bounds item: got %q", reason)
	}

	ok := Event{Kind: EvCreateEntity, NewActor: &Actor{ID: "gull", Name: "a herring gull", Pos: Pos{X: 3, Y: 3}}}
	if reason := Validate(s, ok, tune); reason != "" {
		t.Fatalf("valid create: got %q", reason)
	}
}
