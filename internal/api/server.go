package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"precipwatch/internal/alerts"
	"precipwatch/internal/types"
)

// AlertStore is the alert persistence surface the handlers need.
type AlertStore interface {
	Create(ctx context.Context, draft *types.AlertDraft) (*types.Alert, error)
	GetByID(ctx context.Context, id string) (*types.Alert, error)
	List(ctx context.Context) ([]types.Alert, error)
	Update(ctx context.Context, id string, draft *types.AlertDraft) (*types.Alert, error)
	SetSnoozedUntil(ctx context.Context, id string, until *time.Time) error
	Delete(ctx context.Context, id string) error
}

// CitySearcher abstracts city catalog lookups.
type CitySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.City, error)
}

// HistoryStore is the history surface the handlers need. There is no update
// method anywhere on it; history is append-only with a single destructive
// clear.
type HistoryStore interface {
	QuerySince(ctx context.Context, since time.Time) ([]types.AlertHistory, error)
	Clear(ctx context.Context) (int64, error)
}

// PrefStore is the preference surface the handlers need.
type PrefStore interface {
	UpdateIntervalHours(ctx context.Context) (int, bool, error)
	SetUpdateIntervalHours(ctx context.Context, hours int) error
	LastCheck(ctx context.Context) (time.Time, bool, error)
	SetUserAPIKey(ctx context.Context, provider types.ProviderName, key types.SecretString) error
}

// AlertValidator previews a draft alert against live provider data.
type AlertValidator interface {
	Validate(ctx context.Context, draft *types.AlertDraft) (*types.EvaluationResult, error)
}

// CycleRunner triggers a check cycle on demand.
type CycleRunner interface {
	Run(ctx context.Context) (*types.CycleReport, error)
}

// Rescheduler adjusts the periodic check interval at runtime.
type Rescheduler interface {
	Reschedule(ctx context.Context, interval time.Duration) error
	Interval() time.Duration
}

// Server is the HTTP control API.
type Server struct {
	alerts    AlertStore
	cities    CitySearcher
	history   HistoryStore
	prefs     PrefStore
	validator AlertValidator
	runner    CycleRunner
	scheduler Rescheduler
	snooze    *alerts.SnoozeManager
	providers []types.ProviderName
	logger    *slog.Logger
	router    chi.Router
}

// ServerConfig holds the dependencies for creating a Server.
type ServerConfig struct {
	Alerts    AlertStore
	Cities    CitySearcher
	History   HistoryStore
	Prefs     PrefStore
	Validator AlertValidator
	Runner    CycleRunner
	Scheduler Rescheduler
	Snooze    *alerts.SnoozeManager
	Providers []types.ProviderName
	Logger    *slog.Logger
}

// NewServer creates the control API server and mounts its routes.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		alerts:    cfg.Alerts,
		cities:    cfg.Cities,
		history:   cfg.History,
		prefs:     cfg.Prefs,
		validator: cfg.Validator,
		runner:    cfg.Runner,
		scheduler: cfg.Scheduler,
		snooze:    cfg.Snooze,
		providers: cfg.Providers,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Post("/", s.handleCreateAlert)
			r.Route("/{alertID}", func(r chi.Router) {
				r.Get("/", s.handleGetAlert)
				r.Put("/", s.handleUpdateAlert)
				r.Delete("/", s.handleDeleteAlert)
				r.Post("/snooze", s.handleSnoozeAlert)
				r.Delete("/snooze", s.handleClearSnooze)
			})
		})

		r.Post("/check", s.handleRunCheck)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleListHistory)
			r.Get("/export", s.handleExportHistory)
			r.Delete("/", s.handleClearHistory)
		})

		r.Get("/status", s.handleStatus)
		r.Put("/status/interval", s.handleSetInterval)
		r.Put("/providers/{provider}/key", s.handleSetProviderKey)

		r.Get("/cities", s.handleSearchCities)
	})

	s.router = r
	return s
}

// Handler returns the server's root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
