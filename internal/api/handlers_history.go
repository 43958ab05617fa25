package api

import (
	"net/http"
	"time"

	"precipwatch/internal/history"
	"precipwatch/internal/types"
)

// timeLayout is the wire format for timestamps in query parameters and
// response bodies.
const timeLayout = time.RFC3339

// handleListHistory returns triggered-alert history, newest first. The
// optional "since" query parameter (RFC 3339) bounds the window; absent, the
// last 30 days are returned.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(timeLayout, raw)
		if err != nil {
			Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
				"since must be an RFC 3339 timestamp", err))
			return
		}
		since = parsed
	}

	rows, err := s.history.QuerySince(r.Context(), since)
	if err != nil {
		Error(w, r, err)
		return
	}
	if rows == nil {
		rows = []types.AlertHistory{}
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: rows})
}

// handleExportHistory streams the full history as a gzip-compressed JSON
// attachment.
func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.history.QuerySince(r.Context(), time.Time{})
	if err != nil {
		Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="alert-history.json.gz"`)
	if err := history.ExportGzipJSON(w, rows); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.ErrorContext(r.Context(), "history export failed mid-stream", "error", err)
	}
}

type clearHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}

// handleClearHistory wipes the history table. It is the only destructive
// history operation; individual rows are never edited or removed.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.history.Clear(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: clearHistoryResponse{Deleted: n}})
}
