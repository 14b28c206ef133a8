package tencent

import "encoding/json"

// directionResponse is the subset of the WebService direction answer the
// client inspects. The full body is passed through untouched.
type directionResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type directionResult struct {
	Routes []route `json:"routes"`
}

type route struct {
	Mode     string    `json:"mode"`
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Polyline []float64 `json:"polyline"`
}
