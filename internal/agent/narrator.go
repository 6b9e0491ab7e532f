package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tidecraft.ai/internal/sim/world"
)

const narratorInstructions = `You narrate a turn of a coastal narrative world in second person.
Write 2-4 sentences of evocative but concrete prose covering what changed.
If some of the player's intents were rejected, weave the reason in as an
in-world obstacle. Plain text only, no markdown, no lists.`

// Narrator renders turn narration. Narrate never fails: when the service is
// unavailable or errors, a deterministic template stands in, so a turn never
// commits without narration.
type Narrator struct {
	client Client
	model  string
}

func NewNarrator(client Client, model string) *Narrator {
	return &Narrator{client: client, model: model}
}

func (n *Narrator) Narrate(ctx context.Context, playerText string, tel world.Telemetry, diff []string, rejectedReasons []string) string {
	if n.client != nil {
		payload, err := json.Marshal(map[string]any{
			"player_text":      playerText,
			"telemetry":        tel,
			"changes":          diff,
			"rejected_reasons": rejectedReasons,
		})
		if err == nil {
			resp, err := n.client.CreateResponse(ctx, Request{
				Model:        n.model,
				Instructions: narratorInstructions,
				Input:        []InputItem{{Role: "user", Content: string(payload)}},
			})
			if err == nil && strings.TrimSpace(resp.OutputText) != "" {
				return strings.TrimSpace(resp.OutputText)
			}
		}
	}
	return FallbackNarration(tel, diff, rejectedReasons)
}

// FallbackNarration is the deterministic template used when the reasoning
// service is offline or misbehaves. Same inputs, same text.
func FallbackNarration(tel world.Telemetry, diff []string, rejectedReasons []string) string {
	var b strings.Builder
	where := tel.Location
	if where == "" {
		where = fmt.Sprintf("the open ground at (%d,%d)", tel.Position.X, tel.Position.Y)
	}
	fmt.Fprintf(&b, "It is %s on day %d, the tide %s, the weather %s. You are at %s.",
		tel.Time.Bucket, tel.Time.Day, tel.Tide.Phase, tel.Weather.Type, where)
	if len(diff) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(diff, " "))
	} else {
		b.WriteString(" Nothing around you changes.")
	}
	if len(rejectedReasons) > 0 {
		fmt.Fprintf(&b, " Some of what you tried was not possible (%s).", strings.Join(rejectedReasons, "; "))
	}
	return b.String()
}
