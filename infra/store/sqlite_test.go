package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/score"
	corestore "github.com/npole/herodispatch/core/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestSQLiteRequestsRoundtrip(t *testing.T) {
	db := openTestDB(t)
	s := db.Requests()

	created := time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC)
	r := model.GiftRequest{
		ChildName:  "Meera",
		City:       "Kochi",
		Lat:        9.9312,
		Lng:        76.2673,
		Gift:       "bicycle",
		GiftPrice:  8000,
		Answers:    score.AnswerSet{score.LikesRacing: score.Yes},
		HeroScores: map[string]float64{"Flash": 50},
		Status:     model.StatusWaiting,
		CreatedAt:  created,
	}
	if err := s.Create(&r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.Get(r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ChildName != "Meera" || got.City != "Kochi" || got.GiftPrice != 8000 {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Answers[score.LikesRacing] != score.Yes {
		t.Fatalf("answers lost: %+v", got.Answers)
	}
	if got.HeroScores["Flash"] != 50 {
		t.Fatalf("scores lost: %+v", got.HeroScores)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created at %v, want %v", got.CreatedAt, created)
	}
	if got.CompletedAt != nil {
		t.Fatalf("completed at should be nil, got %v", got.CompletedAt)
	}
}

func TestSQLiteRequestsUpdateAndCompletion(t *testing.T) {
	db := openTestDB(t)
	s := db.Requests()
	r := model.GiftRequest{ID: "r1", ChildName: "Meera", City: "Kochi", Gift: "doll", Status: model.StatusWaiting, CreatedAt: time.Now()}
	if err := s.Create(&r); err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := time.Date(2025, 12, 25, 6, 0, 0, 0, time.UTC)
	r.Status = model.StatusCompleted
	r.AssignedHero = "flash"
	r.ETASeconds = 42
	r.CompletedAt = &done
	if err := s.Update(r); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := s.Get("r1")
	if got.Status != model.StatusCompleted || got.AssignedHero != "flash" || got.ETASeconds != 42 {
		t.Fatalf("update lost: %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("completed at %v, want %v", got.CompletedAt, done)
	}
}

func TestSQLiteRequestsNotFound(t *testing.T) {
	db := openTestDB(t)
	s := db.Requests()
	if _, err := s.Get("missing"); !errors.Is(err, corestore.ErrNotFound) {
		t.Fatalf("Get: %v", err)
	}
	if err := s.Update(model.GiftRequest{ID: "missing"}); !errors.Is(err, corestore.ErrNotFound) {
		t.Fatalf("Update: %v", err)
	}
}

func TestSQLiteRequestsListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	s := db.Requests()
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		r := model.GiftRequest{ID: id, ChildName: "x", City: "y", Gift: "z", Status: model.StatusWaiting, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Create(&r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestSQLiteHeroesRosterOrder(t *testing.T) {
	db := openTestDB(t)
	s := db.Heroes()
	for _, h := range model.DefaultRoster() {
		if err := s.Put(h); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := model.DefaultRoster()
	if len(list) != len(want) {
		t.Fatalf("expected %d heroes, got %d", len(want), len(list))
	}
	for i := range want {
		if list[i].ID != want[i].ID {
			t.Fatalf("order broken at %d: got %s want %s", i, list[i].ID, want[i].ID)
		}
	}
}

func TestSQLiteHeroesPutKeepsPosition(t *testing.T) {
	db := openTestDB(t)
	s := db.Heroes()
	_ = s.Put(model.Hero{ID: "flash", Name: "Flash", SpeedFactor: 0.3})
	_ = s.Put(model.Hero{ID: "batman", Name: "Batman", SpeedFactor: 0.7})

	busy := model.Hero{ID: "flash", Name: "Flash", SpeedFactor: 0.3, Busy: true, CurrentTask: "r1", Queue: []string{"r2"}, TotalRemainingSeconds: 60}
	if err := s.Put(busy); err != nil {
		t.Fatalf("re-Put: %v", err)
	}

	list, _ := s.List()
	if list[0].ID != "flash" {
		t.Fatalf("flash moved: %+v", list)
	}
	got := list[0]
	if !got.Busy || got.CurrentTask != "r1" || len(got.Queue) != 1 || got.Queue[0] != "r2" || got.TotalRemainingSeconds != 60 {
		t.Fatalf("state lost: %+v", got)
	}
}

func TestSQLiteHeroesQueueRoundtrip(t *testing.T) {
	db := openTestDB(t)
	s := db.Heroes()
	h := model.Hero{ID: "flash", Name: "Flash", SpeedFactor: 0.3}
	if err := s.Put(h); err != nil {
		t.Fatalf("Put: %v", err)
	}

	h.Busy = true
	h.CurrentTask = "r1"
	h.Queue = []string{"r2", "r3"}
	if err := s.Update(h); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get("flash")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Queue) != 2 || got.Queue[0] != "r2" || got.Queue[1] != "r3" {
		t.Fatalf("queue lost: %+v", got.Queue)
	}

	// Empty queue round-trips to nil, matching the in-memory store.
	got.Queue = nil
	got.Busy = false
	got.CurrentTask = ""
	if err := s.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = s.Get("flash")
	if got.Queue != nil {
		t.Fatalf("expected nil queue, got %+v", got.Queue)
	}
}

func TestSQLiteHeroesNotFound(t *testing.T) {
	db := openTestDB(t)
	s := db.Heroes()
	if _, err := s.Get("ghost"); !errors.Is(err, corestore.ErrNotFound) {
		t.Fatalf("Get: %v", err)
	}
	if err := s.Update(model.Hero{ID: "ghost"}); !errors.Is(err, corestore.ErrNotFound) {
		t.Fatalf("Update: %v", err)
	}
}
