package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitdash/internal/records"
)

var ErrNoAddress = errors.New("no address for coordinates")

// Address is the subset of a reverse geocoding result the dashboard uses.
type Address struct {
	City         string `json:"city,omitempty"`
	Town         string `json:"town,omitempty"`
	Village      string `json:"village,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Place formats the address as "City, Country". The city is the first of
// city, town, village, municipality that is set; a missing part becomes "Unknown".
func (a Address) Place() string {
	city := records.LocationUnknown
	for _, c := range []string{a.City, a.Town, a.Village, a.Municipality} {
		if c != "" {
			city = c
			break
		}
	}
	country := a.Country
	if country == "" {
		country = records.LocationUnknown
	}
	return fmt.Sprintf("%s, %s", city, country)
}

//go:generate mockgen -source=$GOFILE -destination=reverser_mocks_test.go -package=geocode_test

// Reverser is the external reverse geocoding boundary. Implementations may fail;
// the Resolver turns every failure into the fallback place string.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}
