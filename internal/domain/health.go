package domain

import "time"

// ============================================================
// Persistence readiness
// ============================================================

// ConnState is the connection state of the persistence layer.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Connecting:
		return "connecting"
	default:
		return "disconnected"
	}
}

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz and GET /readyz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastChecked string `json:"lastChecked"`
}

// Heartbeat is returned by GET /health.
type Heartbeat struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricsSnapshot is returned by GET /api/v1/system/metrics.
type MetricsSnapshot struct {
	Requests           map[string]float64 `json:"requests"`
	AuthzDenied        float64            `json:"authzDenied"`
	AuthFailures       float64            `json:"authFailures"`
	RateLimited        float64            `json:"rateLimited"`
	ExternalErrors     float64            `json:"externalErrors"`
	NotificationsSent  float64            `json:"notificationsSent"`
	PrincipalCacheRate float64            `json:"principalCacheHitRate"`
}

// ============================================================
// Response envelope
// ============================================================

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Count   *int     `json:"count,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
