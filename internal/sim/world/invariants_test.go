package world

import (
	"strings"
	"testing"
)

func TestCheck_AcceptsFactoryWorld(t *testing.T) {
	s, _ := testWorld(t)
	if err := Check(s); err != nil {
		t.Fatalf("fresh world: %v", err)
	}
}

func TestCheck_ActorOutsideBounds(t *testing.T) {
	s, _ := testWorld(t)
	s.Actors["player"].Pos = Pos{X: 900, Y: 0}
	if err := Check(s); err == nil {
		t.Fatal("expected failure for out-of-bounds actor")
	}
}

func TestCheck_InventoryBothDirections(t *testing.T) {
	s, _ := testWorld(t)

	// Inventory list references an item placed elsewhere.
	s.Actors["player"].Inventory = []string{"storm_lantern"}
	err := Check(s)
	if err == nil || !strings.Contains(err.Error(), "storm_lantern") {
		t.Fatalf("one-sided inventory list: %v", err)
	}
	s.Actors["player"].Inventory = nil

	// Item placed in an inventory that does not list it.
	s.Items["tide_charts"].Place.ActorID = "cormac"
	err = Check(s)
	if err == nil || !strings.Contains(err.Error(), "tide_charts") {
		t.Fatalf("one-sided item place: %v", err)
	}
}

func TestCheck_ItemWithoutValidPlace(t *testing.T) {
	s, _ := testWorld(t)
	s.Items["storm_lantern"].Place = Place{Kind: PlaceGround}
	if err := Check(s); err == nil {
		t.Fatal("expected failure for ground item without position")
	}

	s.Items["storm_lantern"].Place = Place{Kind: "limbo"}
	if err := Check(s); err == nil {
		t.Fatal("expected failure for unknown place kind")
	}
}

func TestCheckTransition_TurnAndLedger(t *testing.T) {
	prev, tune := testWorld(t)
	next := prev.Clone()
	next.Meta.Turn++
	if err := Apply(next, Event{Kind: EvAdvanceTime, Minutes: 10}, tune); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := CheckTransition(prev, next); err != nil {
		t.Fatalf("valid transition: %v", err)
	}

	back := prev.Clone()
	back.Meta.Turn = prev.Meta.Turn - 1
	if err := CheckTransition(prev, back); err == nil {
		t.Fatal("expected failure for a rewound turn counter")
	}

	shrunk := prev.Clone()
	shrunk.Meta.Turn++
	shrunk.Ledger = nil
	if err := CheckTransition(prev, shrunk); err == nil {
		t.Fatal("expected failure for a shrunk ledger")
	}

	rewritten := prev.Clone()
	rewritten.Meta.Turn++
	rewritten.Ledger[0].Text = "history, revised"
	if err := CheckTransition(prev, rewritten); err == nil {
		t.Fatal("expected failure for a rewritten ledger entry")
	}
}
