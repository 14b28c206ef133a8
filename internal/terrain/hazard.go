// Package terrain holds the static map configuration the navigator works
// against: circular hazard zones and the table of named locations.
//
// Both Field and Atlas are immutable once built and safe for concurrent use.
package terrain

import (
	"fmt"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

// Category classifies a hazard zone.
type Category int

const (
	// HighRisk zones (BT territory) deflect routes the hardest.
	HighRisk Category = iota
	// Weather zones are timefall areas.
	Weather
	// Cliff zones are impassable terrain.
	Cliff
)

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case HighRisk:
		return "high_risk"
	case Weather:
		return "weather"
	case Cliff:
		return "cliff"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Deflection strength multipliers per category.
const (
	highRiskStrength = 2.0
	defaultStrength  = 1.5
)

// DeflectionStrength returns the multiplier applied to the push-out radius of
// a hazard in the given category.
func DeflectionStrength(c Category) float64 {
	if c == HighRisk {
		return highRiskStrength
	}
	return defaultStrength
}

// Hazard is a circular exclusion zone.
type Hazard struct {
	Center   geometry.Point `json:"center"`
	Radius   float64        `json:"radius"`
	Category Category       `json:"category"`
}

// Contains reports whether p lies strictly within radius+margin of the hazard centre.
func (h Hazard) Contains(p geometry.Point, margin float64) bool {
	return geometry.Distance(p, h.Center) < h.Radius+margin
}

// Field is an ordered, read-only set of hazards.
type Field struct {
	hazards []Hazard
}

// NewField creates a field from the given hazards. The slice is copied, so
// later changes by the caller are not observed.
func NewField(hazards ...Hazard) *Field {
	hs := make([]Hazard, len(hazards))
	copy(hs, hazards)
	return &Field{hazards: hs}
}

// DefaultField returns the hazard layout of the stock map.
func DefaultField() *Field {
	return NewField(
		Hazard{Center: geometry.Pt(300, 250), Radius: 50, Category: HighRisk},
		Hazard{Center: geometry.Pt(450, 350), Radius: 30, Category: Weather},
		Hazard{Center: geometry.Pt(250, 300), Radius: 40, Category: Cliff},
	)
}

// Hazards returns a copy of the hazards in field order.
func (f *Field) Hazards() []Hazard {
	if f == nil {
		return nil
	}
	hs := make([]Hazard, len(f.hazards))
	copy(hs, f.hazards)
	return hs
}

// Len returns the number of hazards in the field.
func (f *Field) Len() int {
	if f == nil {
		return 0
	}
	return len(f.hazards)
}

// HazardsNear returns every hazard whose centre is closer to p than its
// radius plus margin, in field order.
func (f *Field) HazardsNear(p geometry.Point, margin float64) []Hazard {
	if f == nil {
		return nil
	}
	var near []Hazard
	for _, h := range f.hazards {
		if h.Contains(p, margin) {
			near = append(near, h)
		}
	}
	return near
}

// DeflectionStrength returns the multiplier for the category. It is exposed on
// Field so callers can treat the field as the single source of hazard rules.
func (f *Field) DeflectionStrength(c Category) float64 {
	return DeflectionStrength(c)
}

// CountByCategory returns how many hazards of the category the field holds.
func (f *Field) CountByCategory(c Category) int {
	if f == nil {
		return 0
	}
	n := 0
	for _, h := range f.hazards {
		if h.Category == c {
			n++
		}
	}
	return n
}
