// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	TableReader

	// Submit ranks a submission into table and returns whether it was kept
	// along with the table contents afterwards.
	Submit(ctx context.Context, table string, sub model.Submission) (bool, []model.Entry, error)
}

// TableReader exposes read access to the tables.
type TableReader interface {
	ListTables(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, table string) ([]model.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	tablesHandler    *TablesHandler
	highscoreHandler *HighscoreHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		tablesHandler:    NewTablesHandler(deps),
		highscoreHandler: NewHighscoreHandler(deps, o.log),
	}
}

type options struct {
	log logger.Logger
}

// Option configures the Server.
type Option func(*options)

// WithLogger sets the logger handlers report failures to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/tables", MetricsMiddleware(s.tablesHandler.HandleList, "tables"))
	mux.HandleFunc(savePattern, MetricsMiddleware(s.highscoreHandler.HandleSave, "save"))
	mux.HandleFunc(highscorePattern, MetricsMiddleware(s.highscoreHandler.HandleGet, "highscore"))
}

// tableResponse is the read shape of GET /highscore/{table}.
type tableResponse = model.Table

// saveResponse is the shape of POST /highscore/save/{table}.
type saveResponse struct {
	Name     string        `json:"name"`
	Accepted bool          `json:"accepted"`
	Entries  []model.Entry `json:"highscores"`
}

type tablesResponse struct {
	Tables []string `json:"tables"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
