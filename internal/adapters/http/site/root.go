// Package site renders the browser view of the highscore tables.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	service "github.com/okian/highscore/internal/app"
	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/pkg/logger"
)

const viewPrefix = "/view/"

//go:embed templates/*
var templateFS embed.FS

var pages = template.Must(template.New("site").
	Funcs(template.FuncMap{"rank": func(i int) int { return i + 1 }}).
	ParseFS(templateFS, "templates/*.html"))

// Error constants
var (
	ErrRender = errors.New("site render failed")
)

// TableReader is the read access the view needs.
type TableReader interface {
	ListTables(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, table string) ([]model.Entry, error)
}

// Register attaches the index page at / and table pages under /view/.
func Register(_ context.Context, mux *http.ServeMux, deps TableReader, log logger.Logger) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewRootHandler(deps, log)
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc(viewPrefix, h.HandleTable)
}

// RootHandler renders the HTML pages.
type RootHandler struct {
	deps TableReader
	log  logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps TableReader, log logger.Logger) *RootHandler {
	return &RootHandler{deps: deps, log: log}
}

// HandleRoot handles GET / and lists the tables.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	names, err := h.deps.ListTables(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "index.html", struct{ Tables []string }{names})
}

// HandleTable handles GET /view/{table}.
func (h *RootHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, viewPrefix)
	if name == "style.css" {
		http.ServeFileFS(w, r, templateFS, "templates/style.css")
		return
	}
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}
	entries, err := h.deps.Snapshot(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "table.html", model.Table{Name: name, Entries: entries})
}

func (h *RootHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, page, data); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %s: %w", ErrRender, page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *RootHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownTable), errors.Is(err, service.ErrInvalidTableName):
		http.NotFound(w, r)
	default:
		if h.log != nil {
			h.log.Error(r.Context(), "render page failed", logger.String("path", r.URL.Path), logger.Error(err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
