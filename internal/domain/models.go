// Package domain defines the core business entities for the BEPIT concierge.
// These models are independent of external services and represent the
// canonical data structures used throughout the BFA.
package domain

import "time"

// ============================================================
// Region / City
// ============================================================

// Region is the top-level tenant scope. Every other entity hangs off one.
type Region struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// City belongs to exactly one Region.
type City struct {
	ID       string `json:"id"`
	RegionID string `json:"region_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
}

// ============================================================
// Item (partner or local tip)
// ============================================================

// ItemKind discriminates recommendable partners from local tips.
type ItemKind string

const (
	ItemKindPartner ItemKind = "PARTNER"
	ItemKindTip     ItemKind = "TIP"
)

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	return k == ItemKindPartner || k == ItemKindTip
}

// Item is a partner business or a local tip owned by a City.
// Inactive items are kept but never returned by search.
type Item struct {
	ID          string   `json:"id"`
	CityID      string   `json:"city_id"`
	Kind        ItemKind `json:"kind"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Benefit     string   `json:"benefit,omitempty"`
	Address     string   `json:"address,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	Tags        []string `json:"tags"`
	Hours       string   `json:"hours,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
	Photos      []string `json:"photos"`
	Active      bool     `json:"active"`
	ViewCount   int64    `json:"view_count"`
}

// ItemQuery scopes an item lookup. Empty CityIDs means "no city filter",
// which callers avoid: search is always scoped to a region's cities.
type ItemQuery struct {
	CityIDs    []string
	Kind       ItemKind
	Terms      []string // name/category wildcard terms, OR-ed
	ActiveOnly bool
	Limit      int
}

// ItemFilter is used by the admin listing.
type ItemFilter struct {
	CityID string
	Kind   ItemKind
}

// ============================================================
// Interaction (append-only chat log)
// ============================================================

// Interaction is one logged question/answer exchange.
type Interaction struct {
	ID             string   `json:"id,omitempty"`
	RegionID       string   `json:"region_id"`
	ConversationID string   `json:"conversation_id"`
	UserQuestion   string   `json:"user_question"`
	AIAnswer       string   `json:"ai_answer"`
	SuggestedItems []string `json:"suggested_items"` // item ids
	UserFeedback   string   `json:"user_feedback,omitempty"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	InteractionID string `json:"interactionId"`
	Feedback      string `json:"feedback"`
}

// SuccessResponse is the generic {success:true} body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}
