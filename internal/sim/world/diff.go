package world

import (
	"fmt"
	"sort"
)

// Diff summarizes what one turn changed, as compact human-readable lines the
// narrator consumes. Empty slice means nothing observable happened.
func Diff(before, after *State) []string {
	var out []string

	for _, id := range after.sortedActorIDs() {
		b := before.Actors[id]
		a := after.Actors[id]
		if b == nil {
			out = append(out, fmt.Sprintf("actor %s (%s) appeared at (%d,%d)", id, a.Name, a.Pos.X, a.Pos.Y))
			continue
		}
		if b.Pos != a.Pos {
			out = append(out, fmt.Sprintf("%s moved from (%d,%d) to (%d,%d)", a.Name, b.Pos.X, b.Pos.Y, a.Pos.X, a.Pos.Y))
		}
		gained, lost := diffIDs(b.Inventory, a.Inventory)
		for _, itemID := range gained {
			out = append(out, fmt.Sprintf("%s now carries %s", a.Name, itemName(after, itemID)))
		}
		for _, itemID := range lost {
			out = append(out, fmt.Sprintf("%s no longer carries %s", a.Name, itemName(after, itemID)))
		}
	}

	for _, id := range after.sortedItemIDs() {
		if before.Items[id] == nil {
			out = append(out, fmt.Sprintf("item %s appeared", itemName(after, id)))
		}
	}
	for _, id := range after.sortedLocationIDs() {
		if before.Locations[id] == nil {
			out = append(out, fmt.Sprintf("location %s was discovered", after.Locations[id].Name))
		}
	}

	if d := after.Systems.ElapsedMinutes - before.Systems.ElapsedMinutes; d > 0 {
		out = append(out, fmt.Sprintf("%d minutes passed", d))
	}

	flagKeys := make([]string, 0, len(after.Meta.Flags))
	for k, v := range after.Meta.Flags {
		if before.Meta.Flags[k] != v {
			flagKeys = append(flagKeys, k)
		}
	}
	sort.Strings(flagKeys)
	for _, k := range flagKeys {
		out = append(out, fmt.Sprintf("flag %s=%s", k, after.Meta.Flags[k]))
	}

	if before.Meta.Prompt == nil && after.Meta.Prompt != nil {
		out = append(out, fmt.Sprintf("a question is pending: %s", after.Meta.Prompt.Question))
	}
	return out
}

func diffIDs(before, after []string) (gained, lost []string) {
	was := map[string]bool{}
	for _, id := range before {
		was[id] = true
	}
	is := map[string]bool{}
	for _, id := range after {
		is[id] = true
		if !was[id] {
			gained = append(gained, id)
		}
	}
	for _, id := range before {
		if !is[id] {
			lost = append(lost, id)
		}
	}
	return gained, lost
}

func itemName(s *State, id string) string {
	if it := s.Items[id]; it != nil {
		return it.Name
	}
	return id
}
