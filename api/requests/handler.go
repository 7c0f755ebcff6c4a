package requests

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/npole/herodispatch/core/delivery"
	"github.com/npole/herodispatch/core/dispatch"
	"github.com/npole/herodispatch/core/eta"
	"github.com/npole/herodispatch/core/geo"
	"github.com/npole/herodispatch/core/logger"
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/pricing"
	"github.com/npole/herodispatch/core/score"
	"github.com/npole/herodispatch/core/store"
)

// Handler serves the gift-request API.
type Handler struct {
	requests store.RequestStore
	heroes   store.HeroStore
	manager  *dispatch.Manager
	sim      *delivery.Simulator
	calc     *eta.Calculator
	prices   pricing.Estimator
	log      logger.Logger
	now      func() time.Time
}

// NewHandler creates the request handler.
func NewHandler(requests store.RequestStore, heroes store.HeroStore, manager *dispatch.Manager, sim *delivery.Simulator, calc *eta.Calculator, prices pricing.Estimator, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{
		requests: requests,
		heroes:   heroes,
		manager:  manager,
		sim:      sim,
		calc:     calc,
		prices:   prices,
		log:      log,
		now:      time.Now,
	}
}

// Register mounts the request routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/requests", h.submit)
	mux.HandleFunc("GET /api/requests", h.list)
	mux.HandleFunc("GET /api/requests/{id}", h.get)
	mux.HandleFunc("POST /api/requests/{id}/assign", h.assign)
	mux.HandleFunc("GET /api/requests/{id}/recommendations", h.recommendations)
}

type submitPayload struct {
	ChildName string          `json:"childName"`
	City      string          `json:"city"`
	Lat       float64         `json:"lat"`
	Lng       float64         `json:"lng"`
	Gift      string          `json:"gift"`
	Answers   score.AnswerSet `json:"answers"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := model.GiftRequest{
		ChildName: payload.ChildName,
		City:      payload.City,
		Lat:       payload.Lat,
		Lng:       payload.Lng,
		Gift:      payload.Gift,
		Answers:   payload.Answers,
		Status:    model.StatusWaiting,
		CreatedAt: h.now(),
	}
	if req.Answers == nil {
		req.Answers = score.AnswerSet{}
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.GiftPrice = h.prices.Estimate(r.Context(), req.Gift)
	req.HeroScores = score.Calculate(req.Answers, req.GiftPrice)

	if err := h.requests.Create(&req); err != nil {
		h.log.Errorf("create request: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create request")
		return
	}
	h.log.Infof("request %s submitted by %s for %q", req.ID, req.ChildName, req.Gift)
	writeJSON(w, http.StatusCreated, map[string]any{"request": req})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.List()
	if err != nil {
		h.log.Errorf("list requests: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.Get(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"request": req})
}

type assignPayload struct {
	HeroID string `json:"heroId"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	var payload assignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.HeroID == "" {
		writeError(w, http.StatusBadRequest, "hero ID required")
		return
	}

	req, err := h.requests.Get(requestID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch request")
		return
	}
	hero, err := h.heroes.Get(payload.HeroID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "hero not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch hero")
		return
	}

	distance := geo.Distance(geo.Depot.Lat, geo.Depot.Lng, req.Lat, req.Lng)
	area := geo.AreaDifficulty(req.Lat, req.Lng)
	d := h.calc.Estimate(distance, area, hero.SpeedFactor)

	queued, err := h.manager.Assign(hero.ID, req.ID, d)
	switch {
	case errors.Is(err, dispatch.ErrAlreadyAssigned):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, dispatch.ErrUnknownHero), errors.Is(err, dispatch.ErrUnknownRequest):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.log.Errorf("assign %s to %s: %v", req.ID, hero.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to assign hero")
		return
	}

	if !queued {
		h.sim.Start(hero.ID, req.ID, d)
	}

	message := "delivery started"
	if queued {
		message = "added to hero queue"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    message,
		"queued":     queued,
		"etaSeconds": int(d / time.Second),
	})
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.manager.Recommend(r.PathValue("id"))
	if errors.Is(err, dispatch.ErrUnknownRequest) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		h.log.Errorf("recommendations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get recommendations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
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
