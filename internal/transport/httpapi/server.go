// Package httpapi is the thin HTTP surface over the turn engine: session
// init, one endpoint per player turn, and a health check. All simulation
// logic lives behind the engine.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	stdlog "log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tidecraft.ai/internal/engine"
	"tidecraft.ai/internal/protocol"
	"tidecraft.ai/internal/sim/world"
)

type Server struct {
	engine *engine.Engine
	log    *stdlog.Logger
}

func NewServer(eng *engine.Engine, logger *stdlog.Logger) *Server {
	return &Server{engine: eng, log: logger}
}

// Register installs the API routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/init", s.handleInit)
	mux.HandleFunc("/api/turn", s.handleTurn)
	mux.HandleFunc("/healthz", s.handleHealthz)
}

func (s *Server) handleInit(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(rw, http.StatusMethodNotAllowed, protocol.ErrBadRequest, "POST required")
		return
	}
	var req protocol.InitRequest
	// An empty body means "start a fresh session".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "invalid json body")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	st, tune, created, err := s.engine.CreateSession(sessionID)
	if err != nil {
		s.writeEngineError(rw, err)
		return
	}
	opening := ""
	if len(st.Ledger) > 0 {
		opening = st.Ledger[0].Text
	}
	var tel world.Telemetry
	if player := st.PlayerActor(); player != nil {
		tel = world.BuildTelemetry(st, player.ID, tune)
	}
	writeJSON(rw, http.StatusOK, protocol.InitResponse{
		SessionID: sessionID,
		Created:   created,
		Telemetry: tel,
		Opening:   opening,
	})
}

func (s *Server) handleTurn(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(rw, http.StatusMethodNotAllowed, protocol.ErrBadRequest, "POST required")
		return
	}
	var req protocol.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "sessionId is required")
		return
	}
	if strings.TrimSpace(req.PlayerText) == "" {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "playerText is required")
		return
	}

	rec, err := s.engine.RunTurn(r.Context(), req.SessionID, req.PlayerText)
	if err != nil {
		s.writeEngineError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.TurnResponse{
		SessionID:      rec.SessionID,
		Turn:           rec.Turn,
		AcceptedEvents: rec.AcceptedEvents,
		RejectedEvents: rec.RejectedEvents,
		Telemetry:      rec.Telemetry,
		Narration:      rec.Narration,
	})
}

func (s *Server) handleHealthz(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "version": protocol.Version})
}

func (s *Server) writeEngineError(rw http.ResponseWriter, err error) {
	var coded *protocol.CodedError
	if errors.As(err, &coded) {
		writeError(rw, statusFor(coded.Code), coded.Code, coded.Message)
		return
	}
	if s.log != nil {
		s.log.Printf("internal error: %v", err)
	}
	writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
}

func statusFor(code string) int {
	switch code {
	case protocol.ErrBadRequest:
		return http.StatusBadRequest
	case protocol.ErrSessionNotFound, protocol.ErrPlayerNotFound:
		return http.StatusNotFound
	case protocol.ErrSessionIncompatible, protocol.ErrSessionBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, message string) {
	writeJSON(rw, status, protocol.ErrorResponse{Code: code, Message: message})
}
