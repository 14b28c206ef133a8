package navigation

import (
	"math"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/terrain"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

// Scoring constants.
const (
	// ProximityMargin is added to a hazard radius when scoring segment midpoints.
	ProximityMargin = 50.0

	baseDifficulty    = 1.0
	highRiskPenalty   = 0.5
	otherPenalty      = 0.3
	durationDivisor   = 10.0
	multiHazardCutoff = 2
)

// Stats summarizes a route.
type Stats struct {
	// Distance is the summed segment length in map units.
	Distance float64
	// Difficulty starts at 1.0 and grows with hazard proximity. Rounded to one decimal.
	Difficulty float64
	// Duration is the estimated travel time in minutes.
	Duration int
	// HazardsTraversed is the number of hazards in the field, not the number
	// the route passed; downstream warning thresholds depend on this value.
	HazardsTraversed int
}

// ComputeStats measures the route and scores each segment midpoint against
// the hazards within radius+ProximityMargin of it.
func ComputeStats(route Route, field *terrain.Field) Stats {
	stats := Stats{
		Difficulty:       baseDifficulty,
		HazardsTraversed: field.Len(),
	}
	if len(route) < 2 {
		return stats
	}

	distance := 0.0
	difficulty := baseDifficulty

	for i := 1; i < len(route); i++ {
		prev, cur := route[i-1], route[i]
		distance += geometry.Distance(prev, cur)

		for _, h := range field.HazardsNear(geometry.Midpoint(prev, cur), ProximityMargin) {
			if h.Category == terrain.HighRisk {
				difficulty += highRiskPenalty
			} else {
				difficulty += otherPenalty
			}
		}
	}

	stats.Distance = distance
	stats.Duration = int(roundHalfUp(distance * difficulty / durationDivisor))
	stats.Difficulty = roundHalfUp(difficulty*10) / 10
	return stats
}

// Quality buckets a difficulty score.
type Quality string

const (
	QualityOptimal     Quality = "optimal"
	QualityModerate    Quality = "moderate"
	QualityChallenging Quality = "challenging"
)

// Classify maps a difficulty score to a route quality. Boundaries are
// exclusive: exactly 2.0 is moderate and exactly 3.0 is challenging.
func Classify(difficulty float64) Quality {
	switch {
	case difficulty < 2:
		return QualityOptimal
	case difficulty < 3:
		return QualityModerate
	default:
		return QualityChallenging
	}
}

// Warning texts shown by the map clients.
const (
	WarningHazardousPath = "路径经过危险区域，建议携带充足装备"
	WarningMultipleZones = "检测到多个障碍区域，请小心行进"
	WarningTimefall      = "时雨可能影响行进速度"
)

// Warnings returns the advisories for a route. The timefall advisory is
// always present and always last.
func Warnings(stats Stats) []string {
	warnings := make([]string, 0, 3)
	if stats.Difficulty > 2 {
		warnings = append(warnings, WarningHazardousPath)
	}
	if stats.HazardsTraversed > multiHazardCutoff {
		warnings = append(warnings, WarningMultipleZones)
	}
	return append(warnings, WarningTimefall)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
