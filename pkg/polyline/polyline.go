// Package polyline decodes the compressed coordinate streams returned by the
// Tencent Maps direction service.
//
// The stream is a flat list of numbers holding two interleaved series
// (latitude at even indexes, longitude at odd indexes). The first pair is
// absolute; every later value is an offset, scaled by 1e6, from the value two
// positions earlier in the already decompressed stream. Decoding is therefore
// strictly sequential.
// See https://lbs.qq.com/service/webService/webServiceGuide/route/webServiceRoute
package polyline

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Scale is the fixed-point factor applied to compressed offsets.
const Scale = 1e6

// MinValues is the smallest stream that carries a reference pair plus at
// least one compressed pair.
const MinValues = 4

// ErrInsufficientData indicates the stream is too short to describe a path.
var ErrInsufficientData = errors.New("polyline: insufficient data")

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within the WGS-84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Decode decompresses a forward-differenced coordinate stream.
//
// Pairs that fall outside the valid latitude/longitude ranges are dropped
// silently. A trailing unpaired value is ignored. When fewer than MinValues
// values are supplied, Decode returns an empty slice and ErrInsufficientData;
// callers are expected to log it and fall back to a static path.
func Decode(values []float64) ([]Coordinate, error) {
	if len(values) < MinValues {
		return []Coordinate{}, ErrInsufficientData
	}

	buf := make([]float64, len(values))
	copy(buf, values)

	// Each value depends on the decompressed value two slots back.
	for i := 2; i < len(buf); i++ {
		buf[i] = buf[i-2] + buf[i]/Scale
	}

	path := make([]Coordinate, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		c := Coordinate{Lat: buf[i], Lng: buf[i+1]}
		if c.Valid() {
			path = append(path, c)
		}
	}

	return path, nil
}

// DecodeInts is Decode for integer streams.
func DecodeInts(values []int64) ([]Coordinate, error) {
	f := make([]float64, len(values))
	for i, v := range values {
		f[i] = float64(v)
	}
	return Decode(f)
}

// Length calculates the total length of a path in meters using the haversine formula.
func Length(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += haversineDistance(coords[i-1], coords[i])
	}
	return total
}

// Bounds returns the bounding box of the path expanded by padding degrees on
// every side. An empty path yields an empty bound at the origin.
func Bounds(coords []Coordinate, padding float64) orb.Bound {
	if len(coords) == 0 {
		return orb.Bound{}
	}
	b := LineString(coords).Bound()
	return b.Pad(padding)
}

// LineString converts the path to an orb.LineString in GeoJSON [lng, lat] order.
func LineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Lng, c.Lat})
	}
	return ls
}

// Feature wraps the path as a GeoJSON LineString feature.
func Feature(coords []Coordinate) *geojson.Feature {
	f := geojson.NewFeature(LineString(coords))
	f.Properties["points"] = len(coords)
	f.Properties["length_meters"] = math.Round(Length(coords))
	return f
}

const earthRadiusMeters = 6371000

// haversineDistance calculates the distance between two coordinates in meters.
func haversineDistance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
