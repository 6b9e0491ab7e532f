package world

import "fmt"

// Check verifies the structural invariants of a single state:
// every actor has a position inside the map, and every item sits in exactly
// one place with both sides of the inventory relation agreeing.
func Check(s *State) error {
	if s == nil {
		return fmt.Errorf("nil state")
	}
	for _, id := range s.sortedActorIDs() {
		a := s.Actors[id]
		if a == nil {
			return fmt.Errorf("actor %s is nil", id)
		}
		if !s.Map.Contains(a.Pos) {
			return fmt.Errorf("actor %s position (%d,%d) outside map bounds", id, a.Pos.X, a.Pos.Y)
		}
		for _, itemID := range a.Inventory {
			it := s.Items[itemID]
			if it == nil {
				return fmt.Errorf("actor %s inventory references missing item %s", id, itemID)
			}
			if it.Place.Kind != PlaceInventory || it.Place.ActorID != id {
				return fmt.Errorf("item %s listed in inventory of %s but placed %s", itemID, id, describePlace(it.Place))
			}
		}
	}
	for _, id := range s.sortedItemIDs() {
		it := s.Items[id]
		switch it.Place.Kind {
		case PlaceGround:
			if it.Place.Pos == nil {
				return fmt.Errorf("item %s on ground without a position", id)
			}
		case PlaceInventory:
			owner := s.Actors[it.Place.ActorID]
			if owner == nil {
				return fmt.Errorf("item %s in inventory of missing actor %s", id, it.Place.ActorID)
			}
			if !contains(owner.Inventory, id) {
				return fmt.Errorf("item %s placed in inventory of %s but absent from its inventory list", id, it.Place.ActorID)
			}
		case PlaceContainer:
			if it.Place.ContainerID == "" {
				return fmt.Errorf("item %s in container without a container id", id)
			}
		default:
			return fmt.Errorf("item %s has unknown place kind %q", id, it.Place.Kind)
		}
	}
	return nil
}

// CheckTransition verifies the cross-state invariants of one commit: the
// turn counter only increases and the ledger only grows.
func CheckTransition(prev, next *State) error {
	if err := Check(next); err != nil {
		return err
	}
	if next.Meta.Turn < prev.Meta.Turn {
		return fmt.Errorf("turn counter went backwards: %d -> %d", prev.Meta.Turn, next.Meta.Turn)
	}
	if len(next.Ledger) < len(prev.Ledger) {
		return fmt.Errorf("ledger shrank: %d -> %d entries", len(prev.Ledger), len(next.Ledger))
	}
	for i, e := range prev.Ledger {
		if next.Ledger[i] != e {
			return fmt.Errorf("ledger entry %d rewritten", i)
		}
	}
	return nil
}

func describePlace(p Place) string {
	switch p.Kind {
	case PlaceGround:
		if p.Pos != nil {
			return fmt.Sprintf("on ground at (%d,%d)", p.Pos.X, p.Pos.Y)
		}
		return "on ground"
	case PlaceInventory:
		return "in inventory of " + p.ActorID
	case PlaceContainer:
		return "in container " + p.ContainerID
	default:
		return "nowhere"
	}
}
