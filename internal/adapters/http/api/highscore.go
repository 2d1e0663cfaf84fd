package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/pkg/logger"
)

// Method-qualified patterns keep "save" usable as a table name: a GET of
// /highscore/save reads that table instead of being routed to the saver.
const (
	highscorePattern = "GET /highscore/{" + tableParam + "}"
	savePattern      = "POST /highscore/save/{" + tableParam + "}"
	tableParam       = "table"

	maxBodyBytes = 64 << 10
)

// HighscoreHandler serves table reads and score submissions.
type HighscoreHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewHighscoreHandler creates a new highscore handler.
func NewHighscoreHandler(deps Dependencies, log logger.Logger) *HighscoreHandler {
	return &HighscoreHandler{deps: deps, log: log}
}

// saveRequest is the body of POST /highscore/save/{table}.
type saveRequest struct {
	Name   string `json:"name"`
	Score  *int64 `json:"score"`
	Secret string `json:"secret,omitempty"`
}

func (s saveRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return errors.New("missing name")
	case s.Score == nil:
		return errors.New("missing score")
	}
	return nil
}

// HandleGet handles GET /highscore/{table} requests.
func (h *HighscoreHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	table, err := tableFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	entries, err := h.deps.Snapshot(r.Context(), table)
	if err != nil {
		h.fail(r.Context(), w, "read table", table, err)
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{Name: table, Entries: entries})
}

// HandleSave handles POST /highscore/save/{table} requests.
func (h *HighscoreHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	table, err := tableFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	var req saveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	sub := model.Submission{Name: req.Name, Score: *req.Score, Token: req.Secret}
	accepted, entries, err := h.deps.Submit(r.Context(), table, sub)
	if err != nil {
		h.fail(r.Context(), w, "save score", table, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Name: table, Accepted: accepted, Entries: entries})
}

func (h *HighscoreHandler) fail(ctx context.Context, w http.ResponseWriter, op, table string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError && h.log != nil {
		h.log.Error(ctx, op+" failed",
			logger.String("table", table),
			logger.String("requestID", RequestIDFromContext(ctx)),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// tableFromRequest returns the table segment matched by the route pattern.
// The segment is unescaped, so an encoded slash is rejected here.
func tableFromRequest(r *http.Request) (string, error) {
	name := r.PathValue(tableParam)
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: table name %q", ErrBadRequest, name)
	}
	return name, nil
}
