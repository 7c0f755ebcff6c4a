package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/core/score"
	corestore "github.com/npole/herodispatch/core/store"
)

// DB wraps a SQLite database holding gift requests and the hero roster.
// Delivery timer state is deliberately not persisted; it is rebuilt by the
// coordinator's reconciliation pass after restart.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database and ensures the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS requests (
        id TEXT PRIMARY KEY,
        child_name TEXT NOT NULL,
        city TEXT NOT NULL,
        lat REAL NOT NULL,
        lng REAL NOT NULL,
        gift TEXT NOT NULL,
        gift_price REAL NOT NULL DEFAULT 0,
        answers TEXT NOT NULL DEFAULT '{}',
        hero_scores TEXT NOT NULL DEFAULT '{}',
        assigned_hero TEXT NOT NULL DEFAULT '',
        eta_seconds INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        completed_at INTEGER
    );
    CREATE TABLE IF NOT EXISTS heroes (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        speed_factor REAL NOT NULL,
        busy INTEGER NOT NULL DEFAULT 0,
        current_task TEXT NOT NULL DEFAULT '',
        queue TEXT NOT NULL DEFAULT '[]',
        total_remaining_seconds INTEGER NOT NULL DEFAULT 0,
        pos INTEGER NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error { return d.db.Close() }

// Requests returns the request store view of the database.
func (d *DB) Requests() *SQLiteRequests { return &SQLiteRequests{db: d.db} }

// Heroes returns the hero store view of the database.
func (d *DB) Heroes() *SQLiteHeroes { return &SQLiteHeroes{db: d.db} }

// SQLiteRequests implements store.RequestStore on SQLite.
type SQLiteRequests struct {
	db *sql.DB
}

var _ corestore.RequestStore = (*SQLiteRequests)(nil)

func (s *SQLiteRequests) Create(r *model.GiftRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("store: marshal answers: %w", err)
	}
	scores, err := json.Marshal(r.HeroScores)
	if err != nil {
		return fmt.Errorf("store: marshal scores: %w", err)
	}
	var completed any
	if r.CompletedAt != nil {
		completed = r.CompletedAt.UnixNano()
	}
	_, err = s.db.Exec(`INSERT INTO requests
        (id, child_name, city, lat, lng, gift, gift_price, answers, hero_scores,
         assigned_hero, eta_seconds, status, created_at, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ChildName, r.City, r.Lat, r.Lng, r.Gift, r.GiftPrice,
		string(answers), string(scores), r.AssignedHero, r.ETASeconds,
		string(r.Status), r.CreatedAt.UnixNano(), completed)
	return err
}

func (s *SQLiteRequests) Get(id string) (model.GiftRequest, error) {
	row := s.db.QueryRow(`SELECT id, child_name, city, lat, lng, gift, gift_price,
        answers, hero_scores, assigned_hero, eta_seconds, status, created_at, completed_at
        FROM requests WHERE id = ?`, id)
	return scanRequest(row)
}

func (s *SQLiteRequests) List() ([]model.GiftRequest, error) {
	rows, err := s.db.Query(`SELECT id, child_name, city, lat, lng, gift, gift_price,
        answers, hero_scores, assigned_hero, eta_seconds, status, created_at, completed_at
        FROM requests ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.GiftRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *SQLiteRequests) Update(r model.GiftRequest) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("store: marshal answers: %w", err)
	}
	scores, err := json.Marshal(r.HeroScores)
	if err != nil {
		return fmt.Errorf("store: marshal scores: %w", err)
	}
	var completed any
	if r.CompletedAt != nil {
		completed = r.CompletedAt.UnixNano()
	}
	res, err := s.db.Exec(`UPDATE requests SET child_name=?, city=?, lat=?, lng=?,
        gift=?, gift_price=?, answers=?, hero_scores=?, assigned_hero=?,
        eta_seconds=?, status=?, completed_at=? WHERE id=?`,
		r.ChildName, r.City, r.Lat, r.Lng, r.Gift, r.GiftPrice,
		string(answers), string(scores), r.AssignedHero, r.ETASeconds,
		string(r.Status), completed, r.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return corestore.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (model.GiftRequest, error) {
	var (
		r         model.GiftRequest
		answers   string
		scores    string
		status    string
		createdAt int64
		completed sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.ChildName, &r.City, &r.Lat, &r.Lng, &r.Gift,
		&r.GiftPrice, &answers, &scores, &r.AssignedHero, &r.ETASeconds,
		&status, &createdAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GiftRequest{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.GiftRequest{}, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		r.Answers = score.AnswerSet{}
	}
	if err := json.Unmarshal([]byte(scores), &r.HeroScores); err != nil {
		r.HeroScores = map[string]float64{}
	}
	r.Status = model.Status(status)
	r.CreatedAt = time.Unix(0, createdAt)
	if completed.Valid {
		t := time.Unix(0, completed.Int64)
		r.CompletedAt = &t
	}
	return r, nil
}

// SQLiteHeroes implements store.HeroStore on SQLite, preserving roster order
// through an explicit position column.
type SQLiteHeroes struct {
	db *sql.DB
}

var _ corestore.HeroStore = (*SQLiteHeroes)(nil)

func (s *SQLiteHeroes) Put(h model.Hero) error {
	queue, err := json.Marshal(queueOrEmpty(h.Queue))
	if err != nil {
		return fmt.Errorf("store: marshal queue: %w", err)
	}
	res, err := s.db.Exec(`UPDATE heroes SET name=?, speed_factor=?, busy=?,
        current_task=?, queue=?, total_remaining_seconds=? WHERE id=?`,
		h.Name, h.SpeedFactor, boolToInt(h.Busy), h.CurrentTask,
		string(queue), h.TotalRemainingSeconds, h.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	_, err = s.db.Exec(`INSERT INTO heroes
        (id, name, speed_factor, busy, current_task, queue, total_remaining_seconds, pos)
        VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(pos), 0) + 1 FROM heroes))`,
		h.ID, h.Name, h.SpeedFactor, boolToInt(h.Busy), h.CurrentTask,
		string(queue), h.TotalRemainingSeconds)
	return err
}

func (s *SQLiteHeroes) Get(id string) (model.Hero, error) {
	row := s.db.QueryRow(`SELECT id, name, speed_factor, busy, current_task,
        queue, total_remaining_seconds FROM heroes WHERE id = ?`, id)
	return scanHero(row)
}

func (s *SQLiteHeroes) List() ([]model.Hero, error) {
	rows, err := s.db.Query(`SELECT id, name, speed_factor, busy, current_task,
        queue, total_remaining_seconds FROM heroes ORDER BY pos ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Hero
	for rows.Next() {
		h, err := scanHero(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (s *SQLiteHeroes) Update(h model.Hero) error {
	queue, err := json.Marshal(queueOrEmpty(h.Queue))
	if err != nil {
		return fmt.Errorf("store: marshal queue: %w", err)
	}
	res, err := s.db.Exec(`UPDATE heroes SET name=?, speed_factor=?, busy=?,
        current_task=?, queue=?, total_remaining_seconds=? WHERE id=?`,
		h.Name, h.SpeedFactor, boolToInt(h.Busy), h.CurrentTask,
		string(queue), h.TotalRemainingSeconds, h.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return corestore.ErrNotFound
	}
	return nil
}

func scanHero(row rowScanner) (model.Hero, error) {
	var (
		h     model.Hero
		busy  int
		queue string
	)
	err := row.Scan(&h.ID, &h.Name, &h.SpeedFactor, &busy, &h.CurrentTask,
		&queue, &h.TotalRemainingSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hero{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.Hero{}, err
	}
	h.Busy = busy != 0
	if err := json.Unmarshal([]byte(queue), &h.Queue); err != nil {
		h.Queue = nil
	}
	if len(h.Queue) == 0 {
		h.Queue = nil
	}
	return h, nil
}

func queueOrEmpty(q []string) []string {
	if q == nil {
		return []string{}
	}
	return q
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
