package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/world"
)

// ErrUnknownNPC marks a consult call naming an actor that does not exist or
// is not an NPC. Callers feed it back to the model instead of failing the
// turn.
var ErrUnknownNPC = errors.New("unknown npc")

const npcInstructions = `You voice one non-player character in a coastal narrative world.
Stay in character using the persona provided. Reply with a single JSON object:
{"public_utterance": "...", "private_intent": "...", "emotional_tone": "..."}
public_utterance is what the character says aloud. private_intent is a short
note on what they actually want. No text outside the JSON object.`

// NPCConsultant answers consult_npc tool calls. With a nil client it
// produces a deterministic in-character stand-in so the tool never fails
// just because the service is offline.
type NPCConsultant struct {
	client Client
	model  string
}

func NewNPCConsultant(client Client, model string) *NPCConsultant {
	return &NPCConsultant{client: client, model: model}
}

func (n *NPCConsultant) Consult(ctx context.Context, s *world.State, npcID, topic string) (protocol.NPCReply, error) {
	actor := s.Actors[npcID]
	if actor == nil || actor.Kind != world.ActorNPC {
		return protocol.NPCReply{}, fmt.Errorf("npc %q: %w", npcID, ErrUnknownNPC)
	}
	if n.client == nil {
		return offlineReply(actor, topic), nil
	}

	prompt, err := npcPrompt(s, actor, topic)
	if err != nil {
		return protocol.NPCReply{}, err
	}
	resp, err := n.client.CreateResponse(ctx, Request{
		Model:        n.model,
		Instructions: npcInstructions,
		Input:        []InputItem{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return protocol.NPCReply{}, fmt.Errorf("consult %s: %w", npcID, err)
	}
	reply := protocol.NPCReply{NPCID: npcID, Topic: topic}
	if err := json.Unmarshal([]byte(extractJSON(resp.OutputText)), &reply); err != nil || reply.PublicUtterance == "" {
		// Model went off-script; degrade rather than failing the tool call.
		return offlineReply(actor, topic), nil
	}
	reply.NPCID = npcID
	reply.Topic = topic
	return reply, nil
}

func npcPrompt(s *world.State, actor *world.Actor, topic string) (string, error) {
	payload := map[string]any{
		"npc_name": actor.Name,
		"topic":    topic,
	}
	if actor.Persona != nil {
		payload["persona"] = actor.Persona
	}
	if loc := s.LocationAt(actor.Pos); loc != nil {
		payload["location"] = loc.Name
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func offlineReply(actor *world.Actor, topic string) protocol.NPCReply {
	subject := topic
	if subject == "" {
		subject = "that"
	}
	utterance := fmt.Sprintf("%s considers for a moment. \"I couldn't say much about %s right now.\"", actor.Name, subject)
	intent := "keep the conversation short"
	if actor.Persona != nil && len(actor.Persona.Goals) > 0 {
		intent = actor.Persona.Goals[0]
	}
	return protocol.NPCReply{
		NPCID:           actor.ID,
		Topic:           topic,
		PublicUtterance: utterance,
		PrivateIntent:   intent,
		EmotionalTone:   "guarded",
	}
}

// extractJSON pulls the outermost object from possibly fenced model output.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
