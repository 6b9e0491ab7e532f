package protocol

const (
	// Transport/input validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Session routing/state.
	ErrSessionNotFound     = "E_SESSION_NOT_FOUND"
	ErrSessionIncompatible = "E_SESSION_INCOMPATIBLE"
	ErrSessionBusy         = "E_SESSION_BUSY"
	ErrPlayerNotFound      = "E_PLAYER_NOT_FOUND"

	// Turn processing.
	ErrAgentFailure = "E_AGENT_FAILURE"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:          {},
	ErrSessionNotFound:     {},
	ErrSessionIncompatible: {},
	ErrSessionBusy:         {},
	ErrPlayerNotFound:      {},
	ErrAgentFailure:        {},
	ErrInternal:            {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodedError pairs a stable error code with a human-readable message.
// Everything that propagates out of the engine to a caller carries one.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string { return e.Code + ": " + e.Message }

func Coded(code, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}
