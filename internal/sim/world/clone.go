package world

// Clone returns a deep structural copy. Draft-and-commit turn processing
// relies on clones being fully independent: mutating a clone must never be
// observable through the original.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		Meta:    s.Meta,
		Map:     s.Map,
		Systems: s.Systems,
	}
	if s.Meta.Flags != nil {
		out.Meta.Flags = make(map[string]string, len(s.Meta.Flags))
		for k, v := range s.Meta.Flags {
			out.Meta.Flags[k] = v
		}
	}
	if s.Meta.Prompt != nil {
		p := *s.Meta.Prompt
		p.Options = append([]string(nil), s.Meta.Prompt.Options...)
		if s.Meta.Prompt.Data != nil {
			p.Data = make(map[string]string, len(s.Meta.Prompt.Data))
			for k, v := range s.Meta.Prompt.Data {
				p.Data[k] = v
			}
		}
		out.Meta.Prompt = &p
	}

	out.Actors = make(map[string]*Actor, len(s.Actors))
	for id, a := range s.Actors {
		out.Actors[id] = a.clone()
	}
	out.Items = make(map[string]*Item, len(s.Items))
	for id, it := range s.Items {
		out.Items[id] = it.clone()
	}
	out.Locations = make(map[string]*Location, len(s.Locations))
	for id, l := range s.Locations {
		cp := *l
		out.Locations[id] = &cp
	}
	out.Ledger = append([]LedgerEntry(nil), s.Ledger...)
	out.Knowledge = make(map[string]*Knowledge, len(s.Knowledge))
	for id, k := range s.Knowledge {
		out.Knowledge[id] = k.clone()
	}
	return out
}

func (a *Actor) clone() *Actor {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Inventory = append([]string(nil), a.Inventory...)
	if a.Persona != nil {
		p := *a.Persona
		p.Goals = append([]string(nil), a.Persona.Goals...)
		cp.Persona = &p
	}
	return &cp
}

func (it *Item) clone() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	if it.Place.Pos != nil {
		pos := *it.Place.Pos
		cp.Place.Pos = &pos
	}
	return &cp
}

func (k *Knowledge) clone() *Knowledge {
	if k == nil {
		return nil
	}
	cp := newKnowledge()
	for id := range k.Locations {
		cp.Locations[id] = true
	}
	for id := range k.Actors {
		cp.Actors[id] = true
	}
	for id := range k.Items {
		cp.Items[id] = true
	}
	cp.Notes = append([]string(nil), k.Notes...)
	return cp
}
