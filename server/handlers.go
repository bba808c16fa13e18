package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jrsteele09/fpl-companion/cache"
	"github.com/jrsteele09/fpl-companion/dashboard"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/navigation"
)

const maxRequestBytes = 1 << 20

type redirectBody struct {
	To      string `json:"to"`
	AfterMS int64  `json:"after_ms"`
}

type operationResponse struct {
	Status   dashboard.Status `json:"status,omitempty"`
	State    cache.State      `json:"state"`
	Redirect *redirectBody    `json:"redirect,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type fplIDRequest struct {
	FPLID int `json:"fpl_id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": s.config.GetAppName()})
	}
}

// StateHandler returns the cached entities without touching the network.
func (s *Server) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, operationResponse{State: s.orchestrator.Cache().Snapshot()})
	}
}

func (s *Server) StartHandler() http.HandlerFunc {
	return s.operationHandler(s.orchestrator.Start)
}

// LogoutHandler also forgets the assistant conversation.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return s.operationHandler(func(ctx context.Context) (dashboard.Result, error) {
		if s.conversation != nil {
			s.conversation.Reset()
		}
		return s.orchestrator.Logout(ctx)
	})
}

// LoginHandler signs in with a username and password, then starts the
// session loads.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.signIn == nil {
			writeError(w, http.StatusNotImplemented, errors.ErrUnsupported.Error())
			return
		}
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}
		if _, err := s.signIn.SignIn(r.Context(), req.Username, req.Password); err != nil {
			s.logger.Warn().Err(err).Str("username", req.Username).Msg("[server LoginHandler] sign in failed")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.operationHandler(s.orchestrator.Start)(w, r)
	}
}

func (s *Server) LinkHandler() http.HandlerFunc {
	return s.fplIDHandler(s.orchestrator.Link)
}

func (s *Server) SyncHandler() http.HandlerFunc {
	return s.fplIDHandler(s.orchestrator.Synchronize)
}

func (s *Server) StandingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || leagueID <= 0 {
			writeError(w, http.StatusBadRequest, "league id must be a positive integer")
			return
		}
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if page, err = strconv.Atoi(raw); err != nil || page < 1 {
				writeError(w, http.StatusBadRequest, "page must be a positive integer")
				return
			}
		}

		standings, err := s.orchestrator.Standings(r.Context(), leagueID, page)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"standings": standings})
	}
}

func (s *Server) BackendHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.backend == nil {
			writeError(w, http.StatusNotImplemented, errors.ErrUnsupported.Error())
			return
		}
		health, err := s.backend.Health(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, health)
	}
}

func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.conversation == nil {
			writeError(w, http.StatusNotImplemented, errors.ErrUnsupported.Error())
			return
		}
		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		exchange, err := s.conversation.Send(r.Context(), req.Message)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"reply":      exchange,
			"session_id": s.conversation.SessionID(),
		})
	}
}

func (s *Server) ChatResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if s.conversation != nil {
			s.conversation.Reset()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) fplIDHandler(op func(context.Context, int) (dashboard.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fplIDRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.FPLID <= 0 {
			writeError(w, http.StatusBadRequest, "fpl_id must be a positive integer")
			return
		}
		s.operationHandler(func(ctx context.Context) (dashboard.Result, error) {
			return op(ctx, req.FPLID)
		})(w, r)
	}
}

// operationHandler runs op and answers with the resulting cache state and
// where the UI should go next.
func (s *Server) operationHandler(op func(context.Context) (dashboard.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := op(r.Context())

		body := operationResponse{
			Status:   res.Status,
			State:    s.orchestrator.Cache().Snapshot(),
			Redirect: redirectFor(res.Intent),
		}
		status := http.StatusOK
		if err != nil {
			body.Error = err.Error()
			status = statusFor(err)
		}
		writeJSON(w, status, body)
	}
}

func redirectFor(intent navigation.Intent) *redirectBody {
	if intent.IsZero() {
		return nil
	}
	return &redirectBody{To: intent.To, AfterMS: intent.AfterMillis()}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrSessionUnrecoverable):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
