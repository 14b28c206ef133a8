// Package response writes the JSON envelopes returned by the API.
package response

import (
	"encoding/json"
	"net/http"
)

// Failure is the navigation error envelope.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UpstreamFailure is the directions error envelope. Status and Message are
// only present when the upstream answered with a non-zero status.
type UpstreamFailure struct {
	Error   string `json:"error"`
	Status  *int   `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON encodes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// Raw writes an already encoded JSON document unchanged.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// GeoJSON encodes data as application/geo+json.
func GeoJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail writes {"success": false, "error": msg}.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Failure{Success: false, Error: msg})
}

// BadRequest writes a 400 failure envelope.
func BadRequest(w http.ResponseWriter, msg string) {
	Fail(w, http.StatusBadRequest, msg)
}

// InternalError writes a 500 failure envelope.
func InternalError(w http.ResponseWriter, msg string) {
	Fail(w, http.StatusInternalServerError, msg)
}

// Upstream writes a directions error envelope.
func Upstream(w http.ResponseWriter, status int, body UpstreamFailure) {
	JSON(w, status, body)
}
