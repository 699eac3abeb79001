// Package controlapi implements the HTTP control surface cmd/pppd
// exposes for cmd/pppctl: listing sessions and requesting termination.
// It replaces the teacher's ConnectRPC/protobuf control plane, which
// would have required hand-authoring generated code to port.
package controlapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tokarak/gopppd/internal/ppp"
)

// SessionView is the JSON representation of a ppp.SessionSnapshot.
type SessionView struct {
	ID     string `json:"id"`
	IfName string `json:"if_name"`
	State  string `json:"state"`
}

func viewOf(s ppp.SessionSnapshot) SessionView {
	return SessionView{ID: s.ID, IfName: s.IfName, State: s.State.String()}
}

// TerminateRequest is the POST /sessions/{id}/terminate request body.
type TerminateRequest struct {
	Reason uint8 `json:"reason"`
	Hard   bool  `json:"hard"`
}

// Server exposes Manager over HTTP for cmd/pppctl.
type Server struct {
	mgr    *ppp.Manager
	logger *slog.Logger
	router *chi.Mux
}

// New builds the control API router against mgr.
func New(mgr *ppp.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{mgr: mgr, logger: logger.With(slog.String("component", "controlapi"))}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/sessions", s.handleList)
	r.Get("/sessions/{id}", s.handleGet)
	r.Post("/sessions/{id}/terminate", s.handleTerminate)

	s.router = r
	return s
}

// Handler returns the HTTP handler mountable on an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snapshots := s.mgr.Sessions()

	views := make([]SessionView, 0, len(snapshots))
	for _, snap := range snapshots {
		views = append(views, viewOf(snap))
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	for _, snap := range s.mgr.Sessions() {
		if snap.ID == id {
			writeJSON(w, http.StatusOK, viewOf(snap))
			return
		}
	}

	writeError(w, http.StatusNotFound, ppp.ErrSessionNotFound)
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TerminateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.mgr.Terminate(id, ppp.TermReason(req.Reason), req.Hard); err != nil {
		if errors.Is(err, ppp.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
