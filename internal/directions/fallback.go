package directions

import (
	"math"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

// Shenzhen demo endpoints.
var (
	ShenzhenNorth   = polyline.Coordinate{Lat: 22.6087, Lng: 114.0298} // 深圳北站
	ShenzhenBayPark = polyline.Coordinate{Lat: 22.4816, Lng: 113.9356} // 深圳湾公园
	ShenzhenCenter  = polyline.Coordinate{Lat: 22.5431, Lng: 114.0579}
)

// shenzhenRoute is a hand-traced path between ShenzhenNorth and ShenzhenBayPark.
var shenzhenRoute = []polyline.Coordinate{
	ShenzhenNorth,
	{Lat: 22.6050, Lng: 114.0250},
	{Lat: 22.6000, Lng: 114.0200},
	{Lat: 22.5950, Lng: 114.0150},
	{Lat: 22.5900, Lng: 114.0100},
	{Lat: 22.5850, Lng: 114.0050},
	{Lat: 22.5800, Lng: 114.0000},
	{Lat: 22.5750, Lng: 113.9950},
	{Lat: 22.5700, Lng: 113.9900},
	{Lat: 22.5650, Lng: 113.9850},
	{Lat: 22.5600, Lng: 113.9800},
	{Lat: 22.5550, Lng: 113.9750},
	{Lat: 22.5500, Lng: 113.9700},
	{Lat: 22.5450, Lng: 113.9650},
	{Lat: 22.5400, Lng: 113.9600},
	{Lat: 22.5350, Lng: 113.9550},
	{Lat: 22.5300, Lng: 113.9500},
	{Lat: 22.5250, Lng: 113.9450},
	{Lat: 22.5200, Lng: 113.9400},
	ShenzhenBayPark,
}

// sameSpot tolerance in degrees (~11m).
const sameSpot = 1e-4

// FallbackFunc produces a path when the provider cannot.
type FallbackFunc func(from, to polyline.Coordinate) []polyline.Coordinate

// StaticFallback returns the traced Shenzhen route for the demo endpoints
// (in either direction) and otherwise a three-point path through the
// midpoint.
func StaticFallback(from, to polyline.Coordinate) []polyline.Coordinate {
	switch {
	case near(from, ShenzhenNorth) && near(to, ShenzhenBayPark):
		return append([]polyline.Coordinate(nil), shenzhenRoute...)
	case near(from, ShenzhenBayPark) && near(to, ShenzhenNorth):
		out := make([]polyline.Coordinate, len(shenzhenRoute))
		for i, c := range shenzhenRoute {
			out[len(out)-1-i] = c
		}
		return out
	}

	mid := polyline.Coordinate{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}
	return []polyline.Coordinate{from, mid, to}
}

func near(a, b polyline.Coordinate) bool {
	return math.Abs(a.Lat-b.Lat) < sameSpot && math.Abs(a.Lng-b.Lng) < sameSpot
}
