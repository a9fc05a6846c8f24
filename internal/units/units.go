// Package units builds the sample tactical units sent by the inject
// command.
package units

import (
	"fmt"
	"math/rand/v2"

	"github.com/danmuck/takctl/internal/protocol/cot"
	"github.com/danmuck/takctl/internal/protocol/sidc"
)

// HowHumanPosted marks a position entered by a person over the network.
const HowHumanPosted = "h-p-i"

// Area is a lat/lon box that sample positions are drawn from.
type Area struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

var Australia = Area{MinLat: -44, MaxLat: -10, MinLon: 113, MaxLon: 154}

// Random returns a uniform position inside a.
func (a Area) Random(rng *rand.Rand) (lat, lon float64) {
	lat = a.MinLat + rng.Float64()*(a.MaxLat-a.MinLat)
	lon = a.MinLon + rng.Float64()*(a.MaxLon-a.MinLon)
	return lat, lon
}

func (a Area) Contains(lat, lon float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}

// Template describes one unit. Exactly one of Code and Type is set; a Code
// produces a persistent entity.
type Template struct {
	Callsign string
	Team     string
	Code     sidc.Code
	Type     string
	HAE      float64
}

// Samples is the fixed set of units used for injection.
func Samples() []Template {
	return []Template{
		{Callsign: "Alpha-1", Team: "Blue", Code: sidc.FriendlyInfantry(sidc.EchelonSquad), HAE: 100},
		{Callsign: "Bravo-2", Team: "Blue", Code: sidc.Encode(
			sidc.AffiliationFriend, sidc.DimensionLandUnit, sidc.StatusReality,
			sidc.FunctionArmor, sidc.EchelonPlatoon, 0,
		), HAE: 150},
		{Callsign: "Charlie-Med", Team: "Blue", Code: sidc.NeutralMedical(sidc.EchelonNone), HAE: 75},
		{Callsign: "Enemy-1", Team: "Red", Code: sidc.HostileArmor(sidc.EchelonCompany), HAE: 200},
		{Callsign: "Neutral-1", Team: "White", Type: "a-n-G-U-C", HAE: 75},
		{Callsign: "Eagle-1", Team: "Blue", Code: sidc.FriendlyAircraft(sidc.FunctionFighter), HAE: 3000},
	}
}

// Build places each template at a random position in area.
func Build(templates []Template, area Area, rng *rand.Rand, opts ...cot.Option) ([]*cot.Entity, error) {
	out := make([]*cot.Entity, 0, len(templates))
	for _, tpl := range templates {
		lat, lon := area.Random(rng)
		report := cot.Report{
			How:      HowHumanPosted,
			Lat:      lat,
			Lon:      lon,
			HAE:      tpl.HAE,
			Callsign: tpl.Callsign,
			Team:     tpl.Team,
		}
		if tpl.Code == "" {
			out = append(out, cot.NewEntity(tpl.Type, report, opts...))
			continue
		}
		e, err := cot.NewEntityFromSIDC(tpl.Code, report, true, opts...)
		if err != nil {
			return nil, fmt.Errorf("units: %s: %w", tpl.Callsign, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Drift moves each entity by up to step degrees in latitude and longitude,
// clamped to area. Altitude is kept. A non-positive step is a no-op.
func Drift(entities []*cot.Entity, area Area, rng *rand.Rand, step float64) {
	if step <= 0 {
		return
	}
	for _, e := range entities {
		lat, lon, hae := e.Position()
		lat = min(max(lat+(2*rng.Float64()-1)*step, area.MinLat), area.MaxLat)
		lon = min(max(lon+(2*rng.Float64()-1)*step, area.MinLon), area.MaxLon)
		e.SetPosition(lat, lon, hae)
	}
}
