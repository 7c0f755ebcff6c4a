package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Depot is the fixed origin of every delivery: Santa's workshop at the North
// Pole.
var Depot = Point{Lat: 90, Lng: 0}

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance between two coordinates in
// kilometers. Non-finite inputs yield 0 rather than propagating NaN.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if !finite(lat1) || !finite(lng1) || !finite(lat2) || !finite(lng2) {
		return 0
	}
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// FallbackAreaScore is returned when the destination cannot be analyzed.
// Difficulty scoring must never block dispatch.
const FallbackAreaScore = 22.0

// Reference points for the urbanicity heuristic. Destinations within 50 km of
// a dense city are considered easier to reach.
var urbanCenters = []Point{
	{Lat: 28.6, Lng: 77.2}, // Delhi
	{Lat: 19.0, Lng: 72.8}, // Mumbai
	{Lat: 13.0, Lng: 80.2}, // Chennai
}

// AreaDifficulty scores how hard a destination is to reach, in [0,100].
// The score combines distance from the depot, a latitude-based terrain proxy,
// urbanicity and water proximity. Non-finite coordinates yield the fallback.
func AreaDifficulty(lat, lng float64) float64 {
	if !finite(lat) || !finite(lng) {
		return FallbackAreaScore
	}

	score := math.Min(Distance(Depot.Lat, Depot.Lng, lat, lng)/100, 50)

	// Terrain proxy: polar regions are harder.
	if math.Abs(lat) > 60 {
		score += 15
	} else {
		score += 5
	}

	score += urbanicityScore(lat, lng)
	score += waterProximityScore(lng)

	return math.Min(math.Max(score, 0), 100)
}

func urbanicityScore(lat, lng float64) float64 {
	for _, c := range urbanCenters {
		if Distance(lat, lng, c.Lat, c.Lng) < 50 {
			return 5
		}
	}
	return 15
}

// waterProximityScore approximates coastal access by longitude band.
func waterProximityScore(lng float64) float64 {
	if math.Abs(lng) > 70 && math.Abs(lng) < 90 {
		return 5
	}
	return 10
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
