package heroes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npole/herodispatch/core/delivery"
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/store"
)

func newMux(t *testing.T) (*http.ServeMux, *store.MemoryHeroes, *store.MemoryRequests, *delivery.Simulator) {
	t.Helper()
	heroStore := store.NewMemoryHeroes()
	for _, h := range model.DefaultRoster() {
		if err := heroStore.Put(h); err != nil {
			t.Fatalf("seed hero: %v", err)
		}
	}
	requests := store.NewMemoryRequests()
	sim, err := delivery.NewSimulator(requests, nil)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	t.Cleanup(sim.Close)

	mux := http.NewServeMux()
	NewHandler(heroStore, requests, sim, nil).Register(mux)
	return mux, heroStore, requests, sim
}

func get(t *testing.T, mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListHeroes(t *testing.T) {
	mux, _, _, _ := newMux(t)
	rec := get(t, mux, "/api/heroes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Heroes []model.Hero `json:"heroes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Heroes) != 7 || resp.Heroes[0].ID != "flash" {
		t.Fatalf("unexpected roster %+v", resp.Heroes)
	}
}

func TestGetHero(t *testing.T) {
	mux, _, _, _ := newMux(t)
	rec := get(t, mux, "/api/heroes/doctor-strange")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Hero model.Hero `json:"hero"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Hero.Name != "Doctor Strange" || resp.Hero.SpeedFactor != 0.2 {
		t.Fatalf("unexpected hero %+v", resp.Hero)
	}

	if rec := get(t, mux, "/api/heroes/ghost"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing hero status %d", rec.Code)
	}
}

func TestHeroQueueResolvesRequests(t *testing.T) {
	mux, heroStore, requests, _ := newMux(t)
	r := model.GiftRequest{ID: "r2", ChildName: "Meera", City: "Kochi", Gift: "doll", Status: model.StatusAssigned, AssignedHero: "flash", ETASeconds: 30, CreatedAt: time.Now()}
	if err := requests.Create(&r); err != nil {
		t.Fatalf("create: %v", err)
	}
	hero, _ := heroStore.Get("flash")
	hero.Busy = true
	hero.CurrentTask = "r1"
	hero.Queue = []string{"r2", "vanished"}
	if err := heroStore.Update(hero); err != nil {
		t.Fatalf("update hero: %v", err)
	}

	rec := get(t, mux, "/api/heroes/flash/queue")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Queue []model.GiftRequest `json:"queue"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Queue) != 1 || resp.Queue[0].ID != "r2" {
		t.Fatalf("unexpected queue %+v", resp.Queue)
	}
}

func TestActiveDeliveries(t *testing.T) {
	mux, _, requests, sim := newMux(t)
	r := model.GiftRequest{ID: "r1", ChildName: "Meera", City: "Kochi", Lat: 9.9312, Lng: 76.2673, Gift: "doll", Status: model.StatusDelivering, AssignedHero: "flash", ETASeconds: 60, CreatedAt: time.Now()}
	if err := requests.Create(&r); err != nil {
		t.Fatalf("create: %v", err)
	}
	sim.Start("flash", "r1", 60*time.Second)

	rec := get(t, mux, "/api/deliveries/active")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Deliveries []delivery.View `json:"deliveries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Deliveries) != 1 || resp.Deliveries[0].DeliveryID != "flash-r1" {
		t.Fatalf("unexpected deliveries %+v", resp.Deliveries)
	}
	if resp.Deliveries[0].Destination.Lat != 9.9312 {
		t.Fatalf("destination %+v", resp.Deliveries[0].Destination)
	}
}
