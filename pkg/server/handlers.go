package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Pat-Reen/FitnessChat/pkg/catalog"
	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/store"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

const maxBodyBytes = 1 << 20

// sessionResponse is a stored session with its ID.
type sessionResponse struct {
	ID string `json:"id"`
	wizard.Session
}

type profileRequest struct {
	Goal         string   `json:"goal"`
	Experience   string   `json:"experience"`
	Restrictions string   `json:"restrictions"`
	Duration     string   `json:"duration"`
	Focus        string   `json:"focus"`
	Groups       []string `json:"groups"`
}

// toProfile fills unset fields from the defaults and normalises the rest.
// Groups must exist in cat.
func (r profileRequest) toProfile(cat *catalog.Catalog) (profile.Profile, error) {
	p := profile.Default()
	var err error
	if r.Goal != "" {
		if p.Goal, err = profile.ParseGoal(r.Goal); err != nil {
			return p, err
		}
	}
	if r.Experience != "" {
		if p.Experience, err = profile.ParseExperience(r.Experience); err != nil {
			return p, err
		}
	}
	if r.Duration != "" {
		if p.Duration, err = profile.ParseDuration(r.Duration); err != nil {
			return p, err
		}
	}
	if r.Focus != "" {
		if p.Focus, err = profile.ParseFocus(r.Focus); err != nil {
			return p, err
		}
	}
	p.Restrictions = strings.TrimSpace(r.Restrictions)
	for _, g := range r.Groups {
		if _, err := cat.ExercisesFor(g); err != nil {
			return p, fmt.Errorf("%w: %w", profile.ErrInvalid, err)
		}
	}
	p.Groups = r.Groups
	return p, nil
}

type toggleRequest struct {
	Exercise string `json:"exercise"`
}

type selectionRequest struct {
	Exercises []string `json:"exercises"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.machine.Catalog()
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"query":     q,
			"exercises": cat.Search(q),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups":    cat.All(),
		"exercises": cat.Flatten(),
	})
}

func (s *Server) handleCatalogGroup(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	exercises, err := s.machine.Catalog().ExercisesFor(group)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Group{Name: group, Exercises: exercises})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := wizard.NewSession()
	id, err := s.store.Create(r.Context(), sess)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Session: sess})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Session: sess})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	defer unlock()

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	s.locks.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := req.toProfile(s.machine.Catalog())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.transition(w, r, func(ctx context.Context, sess wizard.Session) (wizard.Session, error) {
		return s.machine.Submit(ctx, sess, p)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Exercise) == "" {
		writeError(w, http.StatusBadRequest, "exercise is required")
		return
	}
	s.transition(w, r, func(_ context.Context, sess wizard.Session) (wizard.Session, error) {
		return s.machine.Toggle(sess, req.Exercise)
	})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.transition(w, r, func(_ context.Context, sess wizard.Session) (wizard.Session, error) {
		return s.machine.SetSelection(sess, req.Exercises)
	})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.machine.Build)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.machine.Regenerate)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(_ context.Context, sess wizard.Session) (wizard.Session, error) {
		return s.machine.StartOver(sess), nil
	})
}

// transition loads the session, applies fn and saves the result. A failed
// transition leaves the stored session untouched.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, wizard.Session) (wizard.Session, error)) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	next, err := fn(r.Context(), sess)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.Save(r.Context(), id, next); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Session: next})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, profile.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, catalog.ErrUnknownGroup):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrEmptySelection), errors.Is(err, wizard.ErrUnknownExercise):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrLLMCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "error", err)
		if status == http.StatusInternalServerError {
			writeError(w, status, "internal error")
			return
		}
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
