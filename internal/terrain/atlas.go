package terrain

import (
	"sort"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

// Atlas is a read-only table of named map locations.
type Atlas struct {
	locations map[string]geometry.Point
	names     []string
}

// Location is a named point in the atlas.
type Location struct {
	Name  string         `json:"name"`
	Point geometry.Point `json:"point"`
}

// NewAtlas builds an atlas from name to point. The map is copied.
func NewAtlas(locations map[string]geometry.Point) *Atlas {
	a := &Atlas{
		locations: make(map[string]geometry.Point, len(locations)),
		names:     make([]string, 0, len(locations)),
	}
	for name, p := range locations {
		a.locations[name] = p
		a.names = append(a.names, name)
	}
	sort.Strings(a.names)
	return a
}

// DefaultAtlas returns the knot cities of the stock map. Names are kept as
// the map clients send them.
func DefaultAtlas() *Atlas {
	return NewAtlas(map[string]geometry.Point{
		"首都结点城": geometry.Pt(400, 300), // capital knot
		"港口结点城": geometry.Pt(200, 400), // port knot
		"湖结点城":  geometry.Pt(600, 200), // lake knot
		"山地结点城": geometry.Pt(500, 150), // mountain knot
		"南方结点城": geometry.Pt(350, 500), // south knot
	})
}

// Lookup returns the point registered under name.
func (a *Atlas) Lookup(name string) (geometry.Point, bool) {
	if a == nil {
		return geometry.Point{}, false
	}
	p, ok := a.locations[name]
	return p, ok
}

// Names returns all location names in sorted order.
func (a *Atlas) Names() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Locations returns all entries sorted by name.
func (a *Atlas) Locations() []Location {
	if a == nil {
		return nil
	}
	out := make([]Location, 0, len(a.names))
	for _, name := range a.names {
		out = append(out, Location{Name: name, Point: a.locations[name]})
	}
	return out
}
