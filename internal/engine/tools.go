package engine

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"tidecraft.ai/internal/agent"
	"tidecraft.ai/internal/sim/world"
)

// Tool names of the game-master runtime surface.
const (
	ToolObserveWorld  = "observe_world"
	ToolConsultNPC    = "consult_npc"
	ToolProposeEvents = "propose_events"
	ToolFinishTurn    = "finish_turn"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	toolSchemas = mustLoadToolSchemas()
	toolRaw     = mustLoadToolRaw()
)

func mustLoadToolRaw() map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	for _, name := range []string{ToolObserveWorld, ToolConsultNPC, ToolProposeEvents, ToolFinishTurn} {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			panic(fmt.Sprintf("embedded schema %s: %v", name, err))
		}
		out[name] = json.RawMessage(raw)
	}
	return out
}

func mustLoadToolSchemas() map[string]*jsonschema.Schema {
	out := map[string]*jsonschema.Schema{}
	for name, raw := range toolRaw {
		s, err := jsonschema.CompileString(name+".schema.json", string(raw))
		if err != nil {
			panic(fmt.Sprintf("compile schema %s: %v", name, err))
		}
		out[name] = s
	}
	return out
}

func toolDefs() []agent.ToolDef {
	return []agent.ToolDef{
		{
			Name:        ToolObserveWorld,
			Description: "Look at the current world from the game-master or player perspective.",
			Parameters:  toolRaw[ToolObserveWorld],
		},
		{
			Name:        ToolConsultNPC,
			Description: "Ask a non-player character what they say and privately intend, optionally about a topic.",
			Parameters:  toolRaw[ToolConsultNPC],
		},
		{
			Name:        ToolProposeEvents,
			Description: "Propose a batch of world events. Each is validated; the batch is applied all-or-nothing against the world's consistency rules.",
			Parameters:  toolRaw[ToolProposeEvents],
		},
		{
			Name:        ToolFinishTurn,
			Description: "End the turn with a short summary, optionally raising one clarification prompt toward the player.",
			Parameters:  toolRaw[ToolFinishTurn],
		},
	}
}

// Tool argument shapes, decoded only after schema validation.

type observeArgs struct {
	Perspective string `json:"perspective"`
}

type consultArgs struct {
	NPCID string `json:"npc_id"`
	Topic string `json:"topic"`
}

type proposeArgs struct {
	Events []world.Event `json:"events"`
}

type finishArgs struct {
	Summary     string           `json:"summary"`
	RaisePrompt *promptDirective `json:"raise_prompt"`
}

type promptDirective struct {
	Kind     string            `json:"kind"`
	Question string            `json:"question"`
	Options  []string          `json:"options"`
	Data     map[string]string `json:"data"`
}

// checkToolArgs validates raw arguments against the tool's schema. A nil
// return means the payload is safe to decode into the typed struct.
func checkToolArgs(name string, raw json.RawMessage) error {
	schema, ok := toolSchemas[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("arguments are not valid json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}
	return nil
}

// toolError renders a structured error payload fed back to the model in
// place of a tool result. Never propagated as a Go error.
func toolError(code string, err error) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
	return string(b)
}
