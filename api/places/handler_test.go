package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npole/herodispatch/infra/geocode"
)

type staticSuggester map[string][]geocode.Suggestion

func (s staticSuggester) Suggest(_ context.Context, query string) []geocode.Suggestion {
	return s[query]
}

func TestSuggestReturnsMatches(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(staticSuggester{
		"Kochi": {{Name: "Kochi, Kerala, India", Lat: 9.9312, Lng: 76.2673}},
	}).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geo/suggest?q=Kochi", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Suggestions []geocode.Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Lat != 9.9312 {
		t.Fatalf("unexpected suggestions %+v", resp.Suggestions)
	}
}

func TestSuggestEmptyResultIsEmptyArray(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(staticSuggester{}).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geo/suggest?q=nowhere", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp["suggestions"]) != "[]" {
		t.Fatalf("suggestions = %s, want []", resp["suggestions"])
	}
}
