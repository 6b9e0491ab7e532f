package protocol

import "tidecraft.ai/internal/sim/world"

// POST /api/init
type InitRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

type InitResponse struct {
	SessionID string          `json:"sessionId"`
	Created   bool            `json:"created"`
	Telemetry world.Telemetry `json:"telemetry"`
	Opening   string          `json:"opening"`
}

// POST /api/turn
type TurnRequest struct {
	SessionID  string `json:"sessionId"`
	PlayerText string `json:"playerText"`
}

type TurnResponse struct {
	SessionID      string          `json:"sessionId"`
	Turn           int             `json:"turn"`
	AcceptedEvents []world.Event   `json:"acceptedEvents"`
	RejectedEvents []RejectedEvent `json:"rejectedEvents"`
	Telemetry      world.Telemetry `json:"telemetry"`
	Narration      string          `json:"narration"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
