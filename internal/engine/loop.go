package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tidecraft.ai/internal/agent"
	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/sim/world"
)

const gmInstructions = `You are the game master of a turn-based coastal narrative world.
Each turn you receive the player's words and a world observation. Use the
tools to resolve the turn: observe_world to look again, consult_npc to have a
character respond, propose_events to change the world, and finish_turn when
the turn is resolved. Propose only events grounded in what the player said or
what the world demands. Events may be rejected with a reason; adapt or let it
stand, never retry an identical rejected event. Distances are in meters, time
in minutes, and some places are reachable only at certain tides. When a
rejection says travel requires confirmation, end the turn raising a prompt
whose data carries the destination under "location_id" so the player can
confirm next turn. Always call finish_turn with a one-line summary.`

// turnLoop accumulates one turn's processing: the private draft, the events
// accepted so far, everything destined for the turn record.
type turnLoop struct {
	draft    *world.State
	playerID string

	accepted   []world.Event
	rejected   []protocol.RejectedEvent
	npcReplies []protocol.NPCReply
	trace      []protocol.TraceStep

	summary   string
	directive *world.PendingPrompt
	finished  bool
}

// runToolLoop drives the bounded tool-calling loop against the draft. Each
// iteration forwards only the new tool outputs plus the previous response
// id, never the full transcript. A returned error is a service failure; the
// caller rolls the whole turn back.
func (e *Engine) runToolLoop(ctx context.Context, sessionID, playerText string, ls *turnLoop, tune tuning.Tuning) error {
	if e.client == nil {
		// Offline: the world still advances a turn, nothing else happens.
		ls.finished = true
		return nil
	}

	obs := world.BuildObservation(ls.draft, ls.playerID, tune)
	obsJSON, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}
	input := []agent.InputItem{{
		Role:    "user",
		Content: fmt.Sprintf("Turn %d. Player says: %q\n\nObservation:\n%s", ls.draft.Meta.Turn, playerText, obsJSON),
	}}

	for iter := 1; iter <= tune.MaxToolIterations; iter++ {
		resp, err := e.client.CreateResponse(ctx, agent.Request{
			Model:              e.model,
			Instructions:       gmInstructions,
			Input:              input,
			PreviousResponseID: e.previousResponse(sessionID),
			Tools:              toolDefs(),
		})
		if err != nil {
			return err
		}
		e.setPreviousResponse(sessionID, resp.ID)

		if len(resp.ToolCalls) == 0 {
			// A plain message without tool calls ends the turn.
			ls.finished = true
			if ls.summary == "" {
				ls.summary = resp.OutputText
			}
			return nil
		}

		input = nil
		for _, call := range resp.ToolCalls {
			out, err := e.execTool(ctx, ls, call, tune, iter)
			if err != nil {
				return err
			}
			input = append(input, agent.InputItem{
				Type:   "function_call_output",
				CallID: call.CallID,
				Output: out,
			})
			if ls.finished {
				return nil
			}
		}
	}
	// Ceiling reached: the caller marks the record incomplete; events
	// accepted in completed propose_events calls are kept.
	return nil
}

// execTool dispatches one tool call. Malformed arguments and unknown tools
// come back as structured error payloads for the model, never as Go errors;
// a non-nil error here means the reasoning service itself failed.
func (e *Engine) execTool(ctx context.Context, ls *turnLoop, call agent.ToolCall, tune tuning.Tuning, iter int) (string, error) {
	step := protocol.TraceStep{Iteration: iter, Tool: call.Name}
	defer func() { ls.trace = append(ls.trace, step) }()

	if _, ok := toolSchemas[call.Name]; !ok {
		step.Note = "unknown tool"
		return toolError("unknown_tool", fmt.Errorf("tool %q does not exist", call.Name)), nil
	}
	if err := checkToolArgs(call.Name, call.Arguments); err != nil {
		step.Note = "invalid arguments"
		return toolError("invalid_arguments", err), nil
	}

	switch call.Name {
	case ToolObserveWorld:
		var args observeArgs
		_ = json.Unmarshal(call.Arguments, &args)
		var view any
		if args.Perspective == "player" {
			view = world.BuildTelemetry(ls.draft, ls.playerID, tune)
		} else {
			view = world.BuildObservation(ls.draft, ls.playerID, tune)
		}
		b, err := json.Marshal(view)
		if err != nil {
			return "", fmt.Errorf("encode observation: %w", err)
		}
		return string(b), nil

	case ToolConsultNPC:
		var args consultArgs
		_ = json.Unmarshal(call.Arguments, &args)
		reply, err := e.npc.Consult(ctx, ls.draft, args.NPCID, args.Topic)
		if errors.Is(err, agent.ErrUnknownNPC) {
			step.Note = "unknown npc " + args.NPCID
			return toolError("unknown_npc", err), nil
		}
		if err != nil {
			return "", err
		}
		ls.npcReplies = append(ls.npcReplies, reply)
		step.Note = "npc " + args.NPCID
		b, err := json.Marshal(reply)
		if err != nil {
			return "", fmt.Errorf("encode npc reply: %w", err)
		}
		return string(b), nil

	case ToolProposeEvents:
		var args proposeArgs
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			step.Note = "invalid arguments"
			return toolError("invalid_arguments", err), nil
		}
		before := len(ls.rejected)
		accepted, rejected := stageBatch(ls, args.Events, tune)
		step.Note = fmt.Sprintf("accepted %d rejected %d", accepted, rejected)
		result := map[string]any{
			"ok":       accepted > 0 || rejected == 0,
			"accepted": accepted,
			"rejected": rejected,
		}
		if rejected > 0 {
			var reasons []map[string]string
			for _, r := range ls.rejected[before:] {
				reasons = append(reasons, map[string]string{"kind": r.Event.Kind, "reason": r.Reason})
			}
			result["rejections"] = reasons
		}
		b, _ := json.Marshal(result)
		return string(b), nil

	case ToolFinishTurn:
		var args finishArgs
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			step.Note = "invalid arguments"
			return toolError("invalid_arguments", err), nil
		}
		ls.summary = args.Summary
		if p := args.RaisePrompt; p != nil {
			ls.directive = &world.PendingPrompt{
				ID:       uuid.NewString(),
				Kind:     p.Kind,
				Question: p.Question,
				Options:  p.Options,
				Data:     p.Data,
			}
		}
		ls.finished = true
		step.Note = "finish"
		return `{"ok":true}`, nil
	}
	return toolError("unknown_tool", fmt.Errorf("tool %q does not exist", call.Name)), nil
}
