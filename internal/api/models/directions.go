package models

import (
	"github.com/paulmach/orb"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

// PathResponse is the body of GET /api/tencent-directions/path.
type PathResponse struct {
	Source       string                `json:"source"`
	Reason       string                `json:"reason,omitempty"`
	Path         []polyline.Coordinate `json:"path"`
	Bounds       Bounds                `json:"bounds"`
	LengthMeters float64               `json:"length_meters"`
}

// Bounds is a lat/lng bounding box as the map SDKs expect it.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewBounds converts an orb bound with X=lng and Y=lat.
func NewBounds(b orb.Bound) Bounds {
	return Bounds{
		SouthWest: LatLng{Lat: b.Min.Lat(), Lng: b.Min.Lon()},
		NorthEast: LatLng{Lat: b.Max.Lat(), Lng: b.Max.Lon()},
	}
}

// NewPathResponse renders a decoded or fallback path.
func NewPathResponse(p *directions.Path) PathResponse {
	return PathResponse{
		Source:       p.Source,
		Reason:       p.Reason,
		Path:         p.Points,
		Bounds:       NewBounds(p.Bounds),
		LengthMeters: p.LengthMeters,
	}
}
