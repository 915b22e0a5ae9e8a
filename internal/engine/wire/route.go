package wire

import (
	"github.com/trailwatch-io/trailwatch/internal/engine/model"
)

// RawRoutePoint is one sample of a trailer's historical route.
type RawRoutePoint struct {
	Latitude     flexFloat `json:"latitude"`
	Longitude    flexFloat `json:"longitude"`
	Date         flexTime  `json:"date"`
	Speed        flexFloat `json:"speed"`
	LocationName string    `json:"location_name"`
}

// NormalizeRoute converts raw route samples to positions, dropping samples
// without a usable coordinate pair.
func NormalizeRoute(raws []RawRoutePoint) []model.Position {
	points := make([]model.Position, 0, len(raws))
	for _, rp := range raws {
		if !rp.Latitude.Set || !rp.Longitude.Set {
			continue
		}
		points = append(points, model.Position{
			Latitude:  rp.Latitude.Value,
			Longitude: rp.Longitude.Value,
			HasFix:    true,
			Name:      rp.LocationName,
			Speed:     rp.Speed.Value,
			Date:      rp.Date.Value,
		})
	}
	return points
}
