package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"precipwatch/internal/types"
)

// alertWithPreview pairs a persisted alert with the live evaluation preview
// produced during validation so the client can show the would-be outcome
// immediately.
type alertWithPreview struct {
	Alert   *types.Alert            `json:"alert"`
	Preview *types.EvaluationResult `json:"preview,omitempty"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.alerts.List(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	if list == nil {
		list = []types.Alert{}
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: list})
}

// handleCreateAlert validates the draft against live provider data before
// persisting it. A draft that fails live validation is never saved.
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var draft types.AlertDraft
	if err := DecodeBody(w, r, &draft); err != nil {
		Error(w, r, err)
		return
	}

	preview, err := s.validator.Validate(r.Context(), &draft)
	if err != nil {
		Error(w, r, err)
		return
	}

	alert, err := s.alerts.Create(r.Context(), &draft)
	if err != nil {
		Error(w, r, err)
		return
	}

	preview.AlertID = alert.ID
	JSON(w, r, http.StatusCreated, APIResponse{Data: alertWithPreview{Alert: alert, Preview: preview}})
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.alerts.GetByID(r.Context(), chi.URLParam(r, "alertID"))
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: alert})
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "alertID")

	var draft types.AlertDraft
	if err := DecodeBody(w, r, &draft); err != nil {
		Error(w, r, err)
		return
	}

	preview, err := s.validator.Validate(r.Context(), &draft)
	if err != nil {
		Error(w, r, err)
		return
	}

	alert, err := s.alerts.Update(r.Context(), id, &draft)
	if err != nil {
		Error(w, r, err)
		return
	}

	preview.AlertID = alert.ID
	JSON(w, r, http.StatusOK, APIResponse{Data: alertWithPreview{Alert: alert, Preview: preview}})
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.alerts.Delete(r.Context(), chi.URLParam(r, "alertID")); err != nil {
		Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type snoozeRequest struct {
	Option types.SnoozeOption `json:"option"`
}

type snoozeResponse struct {
	AlertID      string `json:"alert_id"`
	SnoozedUntil string `json:"snoozed_until"`
}

// handleSnoozeAlert applies a snooze option to an alert. A repeated snooze
// overwrites the prior one.
func (s *Server) handleSnoozeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "alertID")

	var req snoozeRequest
	if err := DecodeBody(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	until, err := s.snooze.Until(req.Option)
	if err != nil {
		Error(w, r, err)
		return
	}

	if err := s.alerts.SetSnoozedUntil(r.Context(), id, &until); err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: snoozeResponse{
		AlertID:      id,
		SnoozedUntil: until.Format(timeLayout),
	}})
}

func (s *Server) handleClearSnooze(w http.ResponseWriter, r *http.Request) {
	if err := s.alerts.SetSnoozedUntil(r.Context(), chi.URLParam(r, "alertID"), nil); err != nil {
		Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
