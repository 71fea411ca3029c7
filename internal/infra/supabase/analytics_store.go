package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// ============================================================
// Analytics events + counts for the admin summary
// ============================================================

const maxEventsPage = 500

// countableTables guards Count against arbitrary table names.
var countableTables = map[string]bool{
	"regions":          true,
	"cities":           true,
	"items":            true,
	"conversations":    true,
	"interactions":     true,
	"analytics_events": true,
}

// InsertEvent appends an analytics event.
func (c *Client) InsertEvent(ctx context.Context, ev *domain.AnalyticsEvent) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(ev.Type)))

	row := map[string]any{"type": ev.Type}
	if ev.RegionID != "" {
		row["region_id"] = ev.RegionID
	}
	if ev.CityID != "" {
		row["city_id"] = ev.CityID
	}
	if ev.ItemID != "" {
		row["item_id"] = ev.ItemID
	}
	if ev.ConversationID != "" {
		row["conversation_id"] = ev.ConversationID
	}
	if len(ev.Payload) > 0 {
		row["payload"] = ev.Payload
	}

	return c.call(ctx, "analytics_events", func() error {
		_, err := c.doPost(ctx, "analytics_events", row)
		return err
	})
}

// ListEvents returns events newest first.
func (c *Client) ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.AnalyticsEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEvents")
	defer span.End()

	path := "analytics_events?order=created_at.desc"
	if f.Type != "" {
		path += "&type=eq." + url.QueryEscape(string(f.Type))
	}
	if f.RegionID != "" {
		path += "&region_id=eq." + url.QueryEscape(f.RegionID)
	}
	if f.ConversationID != "" {
		path += "&conversation_id=eq." + url.QueryEscape(f.ConversationID)
	}
	if f.From != nil {
		path += "&created_at=gte." + url.QueryEscape(f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		path += "&created_at=lte." + url.QueryEscape(f.To.UTC().Format(time.RFC3339))
	}
	limit := f.Limit
	if limit <= 0 || limit > maxEventsPage {
		limit = maxEventsPage
	}
	path += fmt.Sprintf("&limit=%d", limit)

	return getMany[domain.AnalyticsEvent](ctx, c, "analytics_events", path)
}

// Count returns the exact row count of table, narrowed by eventType for
// analytics_events.
func (c *Client) Count(ctx context.Context, table string, eventType domain.EventType) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Count")
	defer span.End()
	span.SetAttributes(attribute.String("table", table))

	if !countableTables[table] {
		return 0, &domain.ErrValidation{Field: "table", Message: "unknown table " + table}
	}

	path := table + "?select=id"
	if eventType != "" {
		path += "&type=eq." + url.QueryEscape(string(eventType))
	}

	var n int64
	err := c.call(ctx, table, func() error {
		var err error
		n, err = c.doCount(ctx, path)
		return err
	})
	return n, err
}
