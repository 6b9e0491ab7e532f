package protocol

import (
	"time"

	"tidecraft.ai/internal/sim/world"
)

// TurnRecord is the write-once unit appended to a session's turn log, one
// JSONL line per committed turn. Replay folds only AcceptedEvents.
type TurnRecord struct {
	RecordID  string    `json:"record_id"` // ulid, sortable
	SessionID string    `json:"session_id"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`

	PlayerID   string `json:"player_id"`
	PlayerText string `json:"player_text"`

	AcceptedEvents []world.Event   `json:"accepted_events,omitempty"`
	RejectedEvents []RejectedEvent `json:"rejected_events,omitempty"`

	NPCReplies []NPCReply `json:"npc_replies,omitempty"`
	Narration  string     `json:"narration"`

	Telemetry world.Telemetry `json:"telemetry"`

	// RaisedPrompt is the finish_turn pending-prompt directive, if any.
	// Replay re-applies it after folding the accepted events.
	RaisedPrompt *world.PendingPrompt `json:"raised_prompt,omitempty"`

	// StateDigest is the post-commit state digest; replay verifies each
	// log prefix against it.
	StateDigest string `json:"state_digest"`

	// Incomplete marks a turn that hit the tool-loop iteration ceiling.
	// Events accepted before the ceiling are kept.
	Incomplete bool        `json:"incomplete,omitempty"`
	Trace      []TraceStep `json:"trace,omitempty"`
}

type RejectedEvent struct {
	Event  world.Event `json:"event"`
	Reason string      `json:"reason"`
}

// NPCReply is the consult_npc tool's output contract.
type NPCReply struct {
	NPCID           string `json:"npc_id"`
	Topic           string `json:"topic,omitempty"`
	PublicUtterance string `json:"public_utterance"`
	PrivateIntent   string `json:"private_intent,omitempty"`
	EmotionalTone   string `json:"emotional_tone,omitempty"`
}

// TraceStep records one tool invocation for debugging.
type TraceStep struct {
	Iteration int    `json:"iteration"`
	Tool      string `json:"tool"`
	Note      string `json:"note,omitempty"`
}
