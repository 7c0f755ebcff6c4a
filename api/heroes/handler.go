package heroes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/npole/herodispatch/core/delivery"
	"github.com/npole/herodispatch/core/logger"
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/store"
)

// Handler serves the hero roster and live delivery views.
type Handler struct {
	heroes   store.HeroStore
	requests store.RequestStore
	sim      *delivery.Simulator
	log      logger.Logger
}

// NewHandler creates the hero handler.
func NewHandler(heroes store.HeroStore, requests store.RequestStore, sim *delivery.Simulator, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{heroes: heroes, requests: requests, sim: sim, log: log}
}

// Register mounts the hero routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/heroes", h.list)
	mux.HandleFunc("GET /api/heroes/{id}", h.get)
	mux.HandleFunc("GET /api/heroes/{id}/queue", h.queue)
	mux.HandleFunc("GET /api/deliveries/active", h.activeDeliveries)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roster, err := h.heroes.List()
	if err != nil {
		h.log.Errorf("list heroes: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list heroes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"heroes": roster})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	hero, err := h.heroes.Get(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "hero not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch hero")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hero": hero})
}

// queue resolves the hero's queued request IDs to full records. Entries whose
// record disappeared are left out.
func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	hero, err := h.heroes.Get(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "hero not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch hero")
		return
	}
	queue := make([]model.GiftRequest, 0, len(hero.Queue))
	for _, id := range hero.Queue {
		if req, err := h.requests.Get(id); err == nil {
			queue = append(queue, req)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": queue})
}

func (h *Handler) activeDeliveries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": h.sim.Active()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
