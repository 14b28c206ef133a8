package models

import (
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/navigation"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/terrain"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

// StatusOK is the status string of every successful navigation response.
const StatusOK = "OK"

// NavigationResponse is the body of GET /api/death-stranding-navigation.
type NavigationResponse struct {
	Success  bool               `json:"success"`
	Status   string             `json:"status"`
	Route    []IntPoint         `json:"route"`
	Summary  RouteSummary       `json:"summary"`
	Warnings []string           `json:"warnings"`
	Metadata NavigationMetadata `json:"metadata"`
}

// RouteSummary holds the display figures of a route.
type RouteSummary struct {
	Distance   TextValue[int]     `json:"distance"`
	Duration   TextValue[int]     `json:"duration"`
	Difficulty TextValue[float64] `json:"difficulty"`
}

// NavigationMetadata describes how a route was produced.
type NavigationMetadata struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	GeneratedAt     Timestamp       `json:"generated_at"`
	TerrainAnalysis TerrainAnalysis `json:"terrain_analysis"`
	RouteQuality    string          `json:"route_quality"`
}

// TerrainAnalysis counts the hazards of the field by kind.
type TerrainAnalysis struct {
	ObstaclesDetected int `json:"obstacles_detected"`
	BTZones           int `json:"bt_zones"`
	TimefallAreas     int `json:"timefall_areas"`
	CliffAreas        int `json:"cliff_areas"`
}

// NewNavigationResponse renders a plan in the client wire format.
func NewNavigationResponse(plan *navigation.Plan) NavigationResponse {
	distance := int(math.Floor(plan.Stats.Distance + 0.5))

	return NavigationResponse{
		Success: true,
		Status:  StatusOK,
		Route:   IntPoints(plan.Route),
		Summary: RouteSummary{
			Distance: TextValue[int]{
				Text:  fmt.Sprintf("%d 像素单位", distance),
				Value: distance,
			},
			Duration: TextValue[int]{
				Text:  fmt.Sprintf("约 %d 分钟", plan.Stats.Duration),
				Value: plan.Stats.Duration * 60,
			},
			Difficulty: TextValue[float64]{
				Text:  "难度: " + strconv.FormatFloat(plan.Stats.Difficulty, 'f', -1, 64) + "/5.0",
				Value: plan.Stats.Difficulty,
			},
		},
		Warnings: plan.Warnings,
		Metadata: NavigationMetadata{
			From:        plan.From.Name,
			To:          plan.To.Name,
			GeneratedAt: Timestamp(plan.GeneratedAt),
			TerrainAnalysis: TerrainAnalysis{
				ObstaclesDetected: plan.Terrain.ObstaclesDetected,
				BTZones:           plan.Terrain.BTZones,
				TimefallAreas:     plan.Terrain.TimefallAreas,
				CliffAreas:        plan.Terrain.CliffAreas,
			},
			RouteQuality: string(plan.Quality),
		},
	}
}

// IntPoints converts route vertices to integer points. Synthesized routes
// are already whole numbers; other inputs are rounded half up.
func IntPoints(points []geometry.Point) []IntPoint {
	out := make([]IntPoint, len(points))
	for i, p := range points {
		r := geometry.Round(p)
		out[i] = IntPoint{X: int(r.X), Y: int(r.Y)}
	}
	return out
}

// LocationsResponse is the body of GET /api/death-stranding-navigation/locations.
type LocationsResponse struct {
	Success   bool               `json:"success"`
	Locations []terrain.Location `json:"locations"`
	Hazards   []terrain.Hazard   `json:"hazards"`
}

// PreviewResponse is the body of GET /api/death-stranding-navigation/preview.
type PreviewResponse struct {
	Success bool       `json:"success"`
	Route   []IntPoint `json:"route"`
	Source  string     `json:"source"`
	From    string     `json:"from"`
	To      string     `json:"to"`
}

// PreviewSource tags preview curves.
const PreviewSource = "preview"

// NewNavigationFeatureCollection renders a plan as GeoJSON: the route as a
// LineString followed by one Point per hazard centre.
func NewNavigationFeatureCollection(plan *navigation.Plan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	route := geojson.NewFeature(geometry.LineString(plan.Route))
	route.Properties["kind"] = "route"
	route.Properties["from"] = plan.From.Name
	route.Properties["to"] = plan.To.Name
	route.Properties["distance"] = plan.Stats.Distance
	route.Properties["duration_minutes"] = plan.Stats.Duration
	route.Properties["difficulty"] = plan.Stats.Difficulty
	route.Properties["route_quality"] = string(plan.Quality)
	route.Properties["warnings"] = plan.Warnings
	fc.Append(route)

	for _, h := range plan.Hazards {
		f := geojson.NewFeature(h.Center.Orb())
		f.Properties["kind"] = "hazard"
		f.Properties["category"] = h.Category.String()
		f.Properties["radius"] = h.Radius
		fc.Append(f)
	}
	return fc
}
