package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// RuntimeMetrics is returned by GET /api/admin/metrics/runtime.
type RuntimeMetrics struct {
	TotalTurns          int64            `json:"totalTurns"`
	ErrorRate           float64          `json:"errorRate"`
	TurnsByBranch       map[string]int64 `json:"turnsByBranch"`
	SideEffectFailures  int64            `json:"sideEffectFailures"`
	FallbackCacheHits   int64            `json:"fallbackCacheHits"`
	AvgTokensPerLLMCall float64          `json:"avgTokensPerLlmCall"`
	Period              string           `json:"period"`
}
