package geo

import (
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(9.9312, 76.2673, 9.9312, 76.2673); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Distance(Depot.Lat, Depot.Lng, 9.9312, 76.2673)
	b := Distance(9.9312, 76.2673, Depot.Lat, Depot.Lng)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestDistanceDepotToKochi(t *testing.T) {
	// Kochi sits at ~9.93N, so the great-circle run from the pole is close to
	// (90-9.93)/360 of the Earth's circumference.
	d := Distance(Depot.Lat, Depot.Lng, 9.9312, 76.2673)
	if d < 8800 || d > 9000 {
		t.Fatalf("unexpected depot-to-Kochi distance %v km", d)
	}
}

func TestDistanceNonFinite(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
	}{
		{"nan lat", math.NaN(), 0, 10, 10},
		{"inf lng", 0, math.Inf(1), 10, 10},
		{"nan dest", 10, 10, math.NaN(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if d := Distance(tc.lat1, tc.lng1, tc.lat2, tc.lng2); d != 0 {
				t.Fatalf("expected 0, got %v", d)
			}
		})
	}
}

func TestAreaDifficultyBounds(t *testing.T) {
	points := []Point{
		{Lat: 9.9312, Lng: 76.2673},
		{Lat: -77.85, Lng: 166.67},
		{Lat: 0, Lng: 0},
		{Lat: 90, Lng: 0},
		{Lat: 28.6, Lng: 77.2},
	}
	for _, p := range points {
		score := AreaDifficulty(p.Lat, p.Lng)
		if score < 0 || score > 100 {
			t.Errorf("score %v out of [0,100] for %+v", score, p)
		}
	}
}

func TestAreaDifficultyFallback(t *testing.T) {
	if s := AreaDifficulty(math.NaN(), 76.2); s != FallbackAreaScore {
		t.Fatalf("expected fallback %v, got %v", FallbackAreaScore, s)
	}
	if s := AreaDifficulty(9.9, math.Inf(-1)); s != FallbackAreaScore {
		t.Fatalf("expected fallback %v, got %v", FallbackAreaScore, s)
	}
}

func TestAreaDifficultyUrbanEasierThanRemote(t *testing.T) {
	// Same latitude band, one destination inside the Delhi radius and one in
	// the open countryside far from any center.
	urban := AreaDifficulty(28.6, 77.2)
	remote := AreaDifficulty(28.6, 100.0)
	if urban >= remote {
		t.Fatalf("urban %v should score below remote %v", urban, remote)
	}
}

func TestAreaDifficultyPolarPenalty(t *testing.T) {
	// Southern latitudes keep the depot-distance term capped for both points,
	// isolating the terrain penalty.
	polar := AreaDifficulty(-75, 100)
	temperate := AreaDifficulty(-45, 100)
	if polar <= temperate {
		t.Fatalf("polar %v should score above temperate %v", polar, temperate)
	}
}
