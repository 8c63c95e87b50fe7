package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/message"
	"go.klb.dev/magclip/internal/store"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("web: response write failed", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.backend.Status())
}

// handleItems serves GET /api/items?tab=&q=&pinned=&limit=.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tab := q.Get("tab")
	if tab == "" {
		tab = s.backend.Status().Tab
	}
	if tab == "" {
		tab = item.DefaultTab
	}
	f := store.Filter{Query: q.Get("q")}
	if v := q.Get("pinned"); v != "" {
		pinned, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid pinned", http.StatusBadRequest)
			return
		}
		f.PinnedOnly = pinned
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	items, err := s.backend.Items(r.Context(), tab, f)
	if err != nil {
		slog.Warn("web: list items failed", "tab", tab, "err", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, message.FromItems(items))
}
