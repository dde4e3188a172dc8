package geocode

import (
	"fmt"
	"math"
)

// gridEpsilon absorbs float noise so that e.g. 1.15 (stored as 1.149999...) stays in cell 1.15.
const gridEpsilon = 1e-9

// Key is a coordinate pair cut down to a 0.01 degree grid cell, stored in hundredths.
// Points within the same cell (roughly 1 km) always share one resolved place.
type Key struct {
	Lat int
	Lon int
}

// KeyFor truncates lat/lon toward zero onto the 0.01 grid, so -58.381 and
// 58.381 both keep their first two decimals.
func KeyFor(lat, lon float64) Key {
	return Key{
		Lat: toHundredths(lat),
		Lon: toHundredths(lon),
	}
}

func toHundredths(v float64) int {
	if v < 0 {
		return int(math.Trunc(v*100 - gridEpsilon))
	}
	return int(math.Trunc(v*100 + gridEpsilon))
}

func (k Key) Latitude() float64 {
	return float64(k.Lat) / 100
}

func (k Key) Longitude() float64 {
	return float64(k.Lon) / 100
}

// Fallback is the place string used when the cell has no name available.
func (k Key) Fallback() string {
	return fmt.Sprintf("Loc (%.2f, %.2f)", k.Latitude(), k.Longitude())
}

func (k Key) String() string {
	return fmt.Sprintf("%.2f,%.2f", k.Latitude(), k.Longitude())
}

// Coordinate is a raw lat/lon pair as found on a record.
type Coordinate struct {
	Lat float64
	Lon float64
}

func (c Coordinate) Key() Key {
	return KeyFor(c.Lat, c.Lon)
}
