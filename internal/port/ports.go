// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations (Supabase PostgREST, Postgres, Redis).
package port

import (
	"context"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// CatalogStore reads and writes regions, cities and items.
type CatalogStore interface {
	// Regions
	GetRegionBySlug(ctx context.Context, slug string) (*domain.Region, error)
	GetRegion(ctx context.Context, id string) (*domain.Region, error)
	ListRegions(ctx context.Context) ([]domain.Region, error)
	CreateRegion(ctx context.Context, region *domain.Region) (*domain.Region, error)
	UpdateRegion(ctx context.Context, region *domain.Region) (*domain.Region, error)
	DeleteRegion(ctx context.Context, id string) error

	// Cities
	ListCities(ctx context.Context, regionID string) ([]domain.City, error)
	GetCity(ctx context.Context, id string) (*domain.City, error)
	CreateCity(ctx context.Context, city *domain.City) (*domain.City, error)
	UpdateCity(ctx context.Context, city *domain.City) (*domain.City, error)
	DeleteCity(ctx context.Context, id string) error

	// Items
	SearchItems(ctx context.Context, q domain.ItemQuery) ([]domain.Item, error)
	ItemsByTag(ctx context.Context, q domain.ItemQuery, tag string) ([]domain.Item, error)
	ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	IncrementItemViews(ctx context.Context, id string) error
	TopItems(ctx context.Context, limit int) ([]domain.Item, error)
}

// ConversationStore persists conversation state in the primary backend.
// Get returns (nil, nil) when the conversation does not exist.
type ConversationStore interface {
	CreateConversation(ctx context.Context, id, regionID string) error
	GetConversation(ctx context.Context, id string) (*chatdomain.ConversationState, error)
	SaveFocus(ctx context.Context, id, regionID string, item *domain.Item) error
	SaveSuggestions(ctx context.Context, id, regionID string, items []domain.Item) error
}

// InteractionStore appends chat interactions and records feedback.
type InteractionStore interface {
	InsertInteraction(ctx context.Context, in *domain.Interaction) (string, error)
	UpdateInteractionFeedback(ctx context.Context, id, feedback string) error
}

// AnalyticsStore appends and queries analytics events.
type AnalyticsStore interface {
	InsertEvent(ctx context.Context, ev *domain.AnalyticsEvent) error
	ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.AnalyticsEvent, error)
}

// Counter returns row counts used by the admin metrics summary.
// table is one of the known table names; eventType narrows analytics_events.
type Counter interface {
	Count(ctx context.Context, table string, eventType domain.EventType) (int64, error)
}

// Store groups every persistence port. Both backend adapters satisfy it.
type Store interface {
	CatalogStore
	ConversationStore
	InteractionStore
	AnalyticsStore
	Counter
	Ping(ctx context.Context) error
}

// ConversationCache is the fallback for conversation state when the
// primary store is unreachable. The in-process implementation has no
// eviction unless a TTL is configured, so it grows for the process lifetime.
type ConversationCache interface {
	Get(ctx context.Context, id string) (*chatdomain.ConversationState, bool)
	Set(ctx context.Context, id string, state *chatdomain.ConversationState)
}

// EventPublisher fans analytics events out to a message bus.
type EventPublisher interface {
	Publish(ctx context.Context, ev *domain.AnalyticsEvent) error
}
