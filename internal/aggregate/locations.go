package aggregate

import (
	"sort"

	"github.com/2beens/fitdash/internal/records"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// LocationSummary totals one resolved location. Hotspot geometry is taken from
// the raw record coordinates, so it is empty for "Unknown".
type LocationSummary struct {
	Location        string  `json:"location"`
	ExerciseMinutes float64 `json:"exerciseMinutes"`
	Calories        float64 `json:"calories"`
	Steps           float64 `json:"steps"`
	Records         int     `json:"records"`

	Points int `json:"points"`
	// Centroid and Bound are [lon, lat] as orb stores them.
	Centroid *orb.Point `json:"centroid,omitempty"`
	Bound    *orb.Bound `json:"bound,omitempty"`
	// RadiusM is the largest distance from the centroid to a point, in meters.
	RadiusM float64 `json:"radiusM"`
}

// LocationBreakdown is sorted by exercise minutes, descending; ties by name.
func LocationBreakdown(recs []records.Record) []LocationSummary {
	byLocation := map[string]*LocationSummary{}
	points := map[string]orb.MultiPoint{}
	for i := range recs {
		r := &recs[i]
		loc := r.Location
		if loc == "" {
			loc = records.LocationUnknown
		}
		s, ok := byLocation[loc]
		if !ok {
			s = &LocationSummary{Location: loc}
			byLocation[loc] = s
		}
		s.ExerciseMinutes += r.TotalExerciseMinutes
		s.Calories += r.Calories()
		s.Steps += r.Steps()
		s.Records++
		if r.HasCoordinates() {
			points[loc] = append(points[loc], orb.Point{*r.Longitude, *r.Latitude})
		}
	}

	out := make([]LocationSummary, 0, len(byLocation))
	for loc, s := range byLocation {
		if mp := points[loc]; len(mp) > 0 {
			centroid, _ := planar.CentroidArea(mp)
			bound := mp.Bound()
			s.Points = len(mp)
			s.Centroid = &centroid
			s.Bound = &bound
			for _, p := range mp {
				if d := geo.Distance(centroid, p); d > s.RadiusM {
					s.RadiusM = d
				}
			}
		}
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExerciseMinutes != out[j].ExerciseMinutes {
			return out[i].ExerciseMinutes > out[j].ExerciseMinutes
		}
		return out[i].Location < out[j].Location
	})
	return out
}
