// CLAUDE:SUMMARY chi HTTP surface: POST /jump, GET /pages, POST /extract, GET /lookups.
package viewer

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/citenav/kit"
	"github.com/hazyhaar/citenav/nav"
)

// RegisterHTTP mounts the viewer's endpoints on a chi router.
func (v *Viewer) RegisterHTTP(r chi.Router) {
	r.Post("/jump", v.handleJump)
	r.Get("/pages", v.handlePages)
	r.Post("/extract", v.handleExtract)
	r.Get("/lookups", v.handleLookups)
}

// handleJump resolves a citation click and reports the outcome.
// POST /jump {"quote": "...", "page": 3, "search_pages": [2,3]}
func (v *Viewer) handleJump(w http.ResponseWriter, r *http.Request) {
	var cit nav.Citation
	if err := json.NewDecoder(r.Body).Decode(&cit); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if cit.Page < 0 {
		http.Error(w, "page must be positive", http.StatusBadRequest)
		return
	}

	ctx := kit.WithTransport(r.Context(), "http")
	out := v.JumpToWait(ctx, cit)
	writeJSON(w, out)
}

// handlePages snapshots the page text cache.
// GET /pages
func (v *Viewer) handlePages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, v.PageTexts())
}

// handleExtract forces synchronous re-extraction of all rendered pages.
// POST /extract
func (v *Viewer) handleExtract(w http.ResponseWriter, r *http.Request) {
	v.ForceTextExtraction(r.Context())
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleLookups returns recent journal entries, newest first.
// GET /lookups?limit=50
func (v *Viewer) handleLookups(w http.ResponseWriter, r *http.Request) {
	if v.jrnl == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := v.jrnl.Recent(r.Context(), limit)
	if err != nil {
		v.logger.Error("viewer: query lookups", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
	}
}
