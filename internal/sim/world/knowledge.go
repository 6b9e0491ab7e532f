package world

// RefreshKnowledge marks every location, actor and ground item within
// radiusM of the actor as seen. Seen status is monotonic: nothing here ever
// clears an entry.
func RefreshKnowledge(s *State, actorID string, radiusM float64) {
	actor := s.Actors[actorID]
	if actor == nil {
		return
	}
	k := s.knowledgeFor(actorID)
	for _, id := range s.sortedLocationIDs() {
		loc := s.Locations[id]
		reach := radiusM + loc.RadiusM
		if CellDist(actor.Pos, loc.Anchor)*s.Map.CellMeters <= reach {
			k.Locations[id] = true
		}
	}
	for _, id := range s.sortedActorIDs() {
		other := s.Actors[id]
		if CellDist(actor.Pos, other.Pos)*s.Map.CellMeters <= radiusM {
			k.Actors[id] = true
		}
	}
	for _, id := range s.sortedItemIDs() {
		it := s.Items[id]
		if it.Place.Kind != PlaceGround || it.Place.Pos == nil {
			continue
		}
		if CellDist(actor.Pos, *it.Place.Pos)*s.Map.CellMeters <= radiusM {
			k.Items[id] = true
		}
	}
}
