package places

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/npole/herodispatch/infra/geocode"
)

// Suggester looks up candidate places for a partial name.
type Suggester interface {
	Suggest(ctx context.Context, query string) []geocode.Suggestion
}

// Handler serves place suggestions for the request-creation form.
type Handler struct {
	suggester Suggester
}

// NewHandler creates the place handler.
func NewHandler(s Suggester) *Handler {
	return &Handler{suggester: s}
}

// Register mounts the suggestion route on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/geo/suggest", h.suggest)
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	suggestions := h.suggester.Suggest(r.Context(), query)
	if suggestions == nil {
		suggestions = []geocode.Suggestion{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"suggestions": suggestions}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
