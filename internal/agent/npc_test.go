package agent

import (
	"context"
	"errors"
	"testing"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

func npcWorld(t *testing.T) *world.State {
	t.Helper()
	return world.NewWorld("t", 1, protocol.SchemaVersion, tuning.Defaults())
}

func TestConsult_UnknownNPC(t *testing.T) {
	n := NewNPCConsultant(nil, "m")
	s := npcWorld(t)

	if _, err := n.Consult(context.Background(), s, "nobody", "tides"); !errors.Is(err, ErrUnknownNPC) {
		t.Fatalf("err = %v", err)
	}
	// The player is an actor but not an NPC.
	if _, err := n.Consult(context.Background(), s, "player", "tides"); !errors.Is(err, ErrUnknownNPC) {
		t.Fatalf("player consult err = %v", err)
	}
}

func TestConsult_OfflineReply(t *testing.T) {
	n := NewNPCConsultant(nil, "m")
	s := npcWorld(t)

	reply, err := n.Consult(context.Background(), s, "maren", "the tower light")
	if err != nil {
		t.Fatalf("consult: %v", err)
	}
	if reply.NPCID != "maren" || reply.Topic != "the tower light" {
		t.Fatalf("reply header: %+v", reply)
	}
	if reply.PublicUtterance == "" || reply.EmotionalTone == "" {
		t.Fatalf("reply body: %+v", reply)
	}
	// Maren's stand-in intent comes from her persona.
	if want := s.Actors["maren"].Persona.Goals[0]; reply.PrivateIntent != want {
		t.Fatalf("intent %q, want %q", reply.PrivateIntent, want)
	}

	again, err := n.Consult(context.Background(), s, "maren", "the tower light")
	if err != nil || again != reply {
		t.Fatalf("offline reply not deterministic: %+v vs %+v", again, reply)
	}
}

func TestConsult_ParsesModelJSON(t *testing.T) {
	client := &stubClient{resp: Response{OutputText: "```json\n{\"public_utterance\":\"Mind the reef.\",\"private_intent\":\"warn them off\",\"emotional_tone\":\"dry\"}\n```"}}
	n := NewNPCConsultant(client, "m")

	reply, err := n.Consult(context.Background(), npcWorld(t), "maren", "the reef")
	if err != nil {
		t.Fatalf("consult: %v", err)
	}
	if reply.PublicUtterance != "Mind the reef." || reply.EmotionalTone != "dry" {
		t.Fatalf("reply: %+v", reply)
	}
	if reply.NPCID != "maren" || reply.Topic != "the reef" {
		t.Fatalf("reply header not restamped: %+v", reply)
	}
}

func TestConsult_OffScriptOutputDegrades(t *testing.T) {
	client := &stubClient{resp: Response{OutputText: "Maren just shrugs."}}
	n := NewNPCConsultant(client, "m")
	s := npcWorld(t)

	reply, err := n.Consult(context.Background(), s, "maren", "gossip")
	if err != nil {
		t.Fatalf("consult: %v", err)
	}
	if reply.PublicUtterance == "" || reply.NPCID != "maren" {
		t.Fatalf("degraded reply: %+v", reply)
	}
}

func TestConsult_ServiceErrorPropagates(t *testing.T) {
	client := &stubClient{err: &APIError{Status: 500, Message: "boom"}}
	n := NewNPCConsultant(client, "m")

	_, err := n.Consult(context.Background(), npcWorld(t), "maren", "anything")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
}
