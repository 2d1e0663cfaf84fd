package api

import "net/http"

// TablesHandler lists the known tables.
type TablesHandler struct {
	deps TableReader
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(deps TableReader) *TablesHandler {
	return &TablesHandler{deps: deps}
}

// HandleList handles GET /tables requests.
func (h *TablesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	names, err := h.deps.ListTables(r.Context())
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, tablesResponse{Tables: names})
}
