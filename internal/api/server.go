// Package api exposes a read-only HTTP surface over a campaign's store,
// for CI dashboards that want to poll results without invoking the CLI
// per request. This is supplementary: the CLI remains the only required
// interface, and the server shares the same *store.Store the CLI uses.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/trailofbits/muton/internal/store"
)

// Server is a read-only chi router over a campaign store.
type Server struct {
	store  *store.Store
	router *chi.Mux
}

func New(s *store.Store) *Server {
	srv := &Server{store: s, router: chi.NewRouter()}
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.RequestID)
	srv.router.Get("/healthz", srv.handleHealthz)
	srv.router.Get("/targets", srv.handleTargets)
	srv.router.Get("/mutants", srv.handleMutants)
	srv.router.Get("/outcomes", srv.handleOutcomes)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.store.GetAllTargets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleMutants(w http.ResponseWriter, r *http.Request) {
	targetID, ok, err := parseTargetID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		all, err := s.allMutants()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
		return
	}

	mutants, err := s.store.GetMutants(targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, mutants)
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	targetID, ok, err := parseTargetID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingTargetID)
		return
	}

	outcomes, err := s.store.GetOutcomes(targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) allMutants() ([]any, error) {
	targets, err := s.store.GetAllTargets()
	if err != nil {
		return nil, err
	}
	var all []any
	for _, t := range targets {
		mutants, err := s.store.GetMutants(t.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range mutants {
			all = append(all, m)
		}
	}
	return all, nil
}

var errMissingTargetID = errMsg("target_id query parameter is required")

type errMsg string

func (e errMsg) Error() string { return string(e) }

func parseTargetID(r *http.Request) (id int64, provided bool, err error) {
	v := r.URL.Query().Get("target_id")
	if v == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, errMsg("invalid target_id")
	}
	return id, true, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
