package world

// RaisePrompt installs the single pending clarification, replacing any
// previous one. The reducer clears it when a confirmed travel succeeds.
func (s *State) RaisePrompt(p PendingPrompt) {
	p.RaisedTurn = s.Meta.Turn
	s.Meta.Prompt = &p
}

func (s *State) ClearPrompt() {
	s.Meta.Prompt = nil
}
