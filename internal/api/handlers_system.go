package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"precipwatch/internal/types"
)

// handleRunCheck triggers an immediate check cycle. A request arriving while
// a cycle is already in flight joins that cycle and receives its report.
func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Run(r.Context())
	if err != nil {
		if report != nil {
			// A systemic failure still produced a report; return both.
			JSON(w, r, http.StatusBadGateway, APIResponse{Data: report})
			return
		}
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: report})
}

type statusResponse struct {
	LastCheck     *string              `json:"last_check,omitempty"`
	IntervalHours float64              `json:"interval_hours"`
	Providers     []types.ProviderName `json:"providers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		IntervalHours: s.scheduler.Interval().Hours(),
		Providers:     s.providers,
	}

	last, ok, err := s.prefs.LastCheck(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	if ok {
		formatted := last.Format(timeLayout)
		resp.LastCheck = &formatted
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: resp})
}

type intervalRequest struct {
	Hours int `json:"hours"`
}

// handleSetInterval persists the user's preferred check interval and
// reschedules the running ticker to match.
func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := DecodeBody(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if req.Hours < 1 || req.Hours > 168 {
		Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"hours must be between 1 and 168", nil).
			WithDetails(map[string]any{"hours": req.Hours}))
		return
	}

	if err := s.prefs.SetUpdateIntervalHours(r.Context(), req.Hours); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.scheduler.Reschedule(r.Context(), time.Duration(req.Hours)*time.Hour); err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: intervalRequest{Hours: req.Hours}})
}

type providerKeyRequest struct {
	Key string `json:"key"`
}

// handleSetProviderKey stores a user-supplied API key for a provider. The
// key is never echoed back.
func (s *Server) handleSetProviderKey(w http.ResponseWriter, r *http.Request) {
	name := types.ProviderName(chi.URLParam(r, "provider"))
	if !s.knownProvider(name) {
		Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidProvider,
			"unknown provider: "+string(name), nil))
		return
	}

	var req providerKeyRequest
	if err := DecodeBody(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.prefs.SetUserAPIKey(r.Context(), name, types.SecretString(req.Key)); err != nil {
		Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) knownProvider(name types.ProviderName) bool {
	for _, p := range s.providers {
		if p == name {
			return true
		}
	}
	return false
}

// handleSearchCities searches the bundled city catalog by name prefix or
// substring.
func (s *Server) handleSearchCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"query parameter q is required", nil))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
				"limit must be an integer", err))
			return
		}
		limit = parsed
	}

	cities, err := s.cities.Search(r.Context(), q, limit)
	if err != nil {
		Error(w, r, err)
		return
	}
	if cities == nil {
		cities = []types.City{}
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: cities})
}
