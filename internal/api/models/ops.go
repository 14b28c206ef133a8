package models

// HealthStatus represents the health status of the service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Health represents the liveness of the service.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// Readiness reports the service status with one entry per upstream provider.
type Readiness struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider            string     `json:"provider"`
	Status              string     `json:"status"`
	Circuit             string     `json:"circuit"`
	ConsecutiveFailures uint32     `json:"consecutive_failures"`
	LastSuccessAt       *Timestamp `json:"last_success_at,omitempty"`
	LastFailureAt       *Timestamp `json:"last_failure_at,omitempty"`
	Message             string     `json:"message,omitempty"`
}
