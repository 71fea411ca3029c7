package domain

import (
	"encoding/json"
	"time"
)

// ============================================================
// Analytics events (observability side-channel)
// ============================================================

// EventType enumerates the analytics event kinds.
type EventType string

const (
	EventSearch      EventType = "search"
	EventPartnerView EventType = "partner_view"
	EventFeedback    EventType = "feedback"
)

// AnalyticsEvent is an append-only record. It is never read back on the
// chat path; only the admin summary and logs endpoints aggregate it.
type AnalyticsEvent struct {
	ID             string          `json:"id,omitempty"`
	Type           EventType       `json:"type"`
	RegionID       string          `json:"region_id,omitempty"`
	CityID         string          `json:"city_id,omitempty"`
	ItemID         string          `json:"item_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}

// EventFilter narrows GET /api/admin/logs.
type EventFilter struct {
	Type           EventType
	RegionID       string
	ConversationID string
	From           *time.Time
	To             *time.Time
	Limit          int
}

// ============================================================
// Admin metrics summary
// ============================================================

// MetricsSummary is returned by GET /api/admin/metrics/summary.
type MetricsSummary struct {
	Regions      int64           `json:"regions"`
	Cities       int64           `json:"cities"`
	Items        int64           `json:"items"`
	Interactions int64           `json:"interactions"`
	Searches     int64           `json:"searches"`
	PartnerViews int64           `json:"partnerViews"`
	Feedbacks    int64           `json:"feedbacks"`
	TopItems     []TopItemMetric `json:"topItems"`
}

// TopItemMetric is one row of the top-viewed items ranking.
type TopItemMetric struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	ViewCount int64  `json:"viewCount"`
}
