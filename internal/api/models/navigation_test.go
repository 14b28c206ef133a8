package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/models"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/navigation"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/terrain"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

func TestNewNavigationResponse_Summary(t *testing.T) {
	tests := []struct {
		name           string
		stats          navigation.Stats
		wantDistance   models.TextValue[int]
		wantDuration   models.TextValue[int]
		wantDifficulty models.TextValue[float64]
	}{
		{
			name:           "integral difficulty",
			stats:          navigation.Stats{Distance: 100, Duration: 10, Difficulty: 2},
			wantDistance:   models.TextValue[int]{Text: "100 像素单位", Value: 100},
			wantDuration:   models.TextValue[int]{Text: "约 10 分钟", Value: 600},
			wantDifficulty: models.TextValue[float64]{Text: "难度: 2/5.0", Value: 2},
		},
		{
			name:           "fractional difficulty",
			stats:          navigation.Stats{Distance: 42.2, Duration: 7, Difficulty: 1.9},
			wantDistance:   models.TextValue[int]{Text: "42 像素单位", Value: 42},
			wantDuration:   models.TextValue[int]{Text: "约 7 分钟", Value: 420},
			wantDifficulty: models.TextValue[float64]{Text: "难度: 1.9/5.0", Value: 1.9},
		},
		{
			name:           "distance rounds half up",
			stats:          navigation.Stats{Distance: 99.5, Duration: 1, Difficulty: 5},
			wantDistance:   models.TextValue[int]{Text: "100 像素单位", Value: 100},
			wantDuration:   models.TextValue[int]{Text: "约 1 分钟", Value: 60},
			wantDifficulty: models.TextValue[float64]{Text: "难度: 5/5.0", Value: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := models.NewNavigationResponse(&navigation.Plan{Stats: tt.stats})

			assert.True(t, resp.Success)
			assert.Equal(t, models.StatusOK, resp.Status)
			assert.Equal(t, tt.wantDistance, resp.Summary.Distance)
			assert.Equal(t, tt.wantDuration, resp.Summary.Duration)
			assert.Equal(t, tt.wantDifficulty, resp.Summary.Difficulty)
		})
	}
}

func TestNewNavigationResponse_Metadata(t *testing.T) {
	plan := &navigation.Plan{
		From:     terrain.Location{Name: "capital", Point: geometry.Pt(0, 0)},
		To:       terrain.Location{Name: "port", Point: geometry.Pt(10, 0)},
		Route:    navigation.Route{{X: 0, Y: 0}, {X: 5, Y: 3}, {X: 10, Y: 0}},
		Stats:    navigation.Stats{Distance: 10, Duration: 1, Difficulty: 1},
		Quality:  navigation.QualityModerate,
		Warnings: []string{navigation.WarningTimefall},
		Terrain:  navigation.TerrainAnalysis{ObstaclesDetected: 3, BTZones: 1, TimefallAreas: 1, CliffAreas: 1},
		GeneratedAt: time.Date(2025, 3, 1, 20, 0, 0, 0,
			time.FixedZone("CST", 8*60*60)),
	}

	body, err := json.Marshal(models.NewNavigationResponse(plan))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))

	meta := got["metadata"].(map[string]any)
	assert.Equal(t, "capital", meta["from"])
	assert.Equal(t, "port", meta["to"])
	assert.Equal(t, "2025-03-01T12:00:00.000Z", meta["generated_at"])
	assert.Equal(t, "moderate", meta["route_quality"])
	assert.Equal(t, map[string]any{
		"obstacles_detected": 3.0,
		"bt_zones":           1.0,
		"timefall_areas":     1.0,
		"cliff_areas":        1.0,
	}, meta["terrain_analysis"])

	assert.Equal(t, []any{
		map[string]any{"x": 0.0, "y": 0.0},
		map[string]any{"x": 5.0, "y": 3.0},
		map[string]any{"x": 10.0, "y": 0.0},
	}, got["route"])
	assert.Equal(t, []any{navigation.WarningTimefall}, got["warnings"])
}

func TestIntPoints(t *testing.T) {
	got := models.IntPoints([]geometry.Point{
		{X: 1.4, Y: 1.5},
		{X: -0.5, Y: -2.5},
		{X: 250, Y: 199.49},
	})

	assert.Equal(t, []models.IntPoint{
		{X: 1, Y: 2},
		{X: 0, Y: -2},
		{X: 250, Y: 199},
	}, got)
}
