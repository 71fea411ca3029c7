package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

const maxEventsPage = 500

// countQueries guards Count against arbitrary table names.
var countQueries = map[string]string{
	"regions":          `SELECT count(*) FROM regions`,
	"cities":           `SELECT count(*) FROM cities`,
	"items":            `SELECT count(*) FROM items`,
	"conversations":    `SELECT count(*) FROM conversations`,
	"interactions":     `SELECT count(*) FROM interactions`,
	"analytics_events": `SELECT count(*) FROM analytics_events WHERE $1 = '' OR type = $1`,
}

// InsertEvent appends an analytics event.
func (s *Store) InsertEvent(ctx context.Context, ev *domain.AnalyticsEvent) error {
	ctx, span := tracer.Start(ctx, "Postgres.InsertEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(ev.Type)))

	var payload []byte
	if len(ev.Payload) > 0 {
		payload = ev.Payload
	}
	return s.exec(ctx, "analytics_events", `
		INSERT INTO analytics_events (type, region_id, city_id, item_id, conversation_id, payload)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6)
	`, string(ev.Type), ev.RegionID, ev.CityID, ev.ItemID, ev.ConversationID, payload)
}

// ListEvents returns events newest first.
func (s *Store) ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.AnalyticsEvent, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListEvents")
	defer span.End()

	sql, args := eventsQuery(f)

	var out []domain.AnalyticsEvent
	err := s.run(ctx, "analytics_events", func() error {
		rows, err := s.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AnalyticsEvent, error) {
			var (
				ev        domain.AnalyticsEvent
				typ       string
				payload   []byte
				createdAt time.Time
			)
			err := row.Scan(&ev.ID, &typ, &ev.RegionID, &ev.CityID, &ev.ItemID, &ev.ConversationID, &payload, &createdAt)
			ev.Type = domain.EventType(typ)
			if len(payload) > 0 {
				ev.Payload = json.RawMessage(payload)
			}
			ev.CreatedAt = &createdAt
			return ev, err
		})
		return err
	})
	return out, err
}

// eventsQuery builds the filtered, newest-first events query. The limit is
// always the last argument.
func eventsQuery(f domain.EventFilter) (string, []any) {
	where := []string{"TRUE"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.RegionID != "" {
		add("region_id::text = $%d", f.RegionID)
	}
	if f.ConversationID != "" {
		add("conversation_id::text = $%d", f.ConversationID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > maxEventsPage {
		limit = maxEventsPage
	}
	args = append(args, limit)

	return fmt.Sprintf(`
		SELECT id::text, type, COALESCE(region_id::text, ''), COALESCE(city_id::text, ''),
			COALESCE(item_id::text, ''), COALESCE(conversation_id::text, ''), payload, created_at
		FROM analytics_events
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d
	`, strings.Join(where, " AND "), len(args)), args
}

// Count returns the row count of table, narrowed by eventType for analytics_events.
func (s *Store) Count(ctx context.Context, table string, eventType domain.EventType) (int64, error) {
	ctx, span := tracer.Start(ctx, "Postgres.Count")
	defer span.End()
	span.SetAttributes(attribute.String("table", table))

	query, ok := countQueries[table]
	if !ok {
		return 0, &domain.ErrValidation{Field: "table", Message: "unknown table " + table}
	}
	var args []any
	if table == "analytics_events" {
		args = append(args, string(eventType))
	}

	var n int64
	err := s.run(ctx, table, func() error {
		return s.pool.QueryRow(ctx, query, args...).Scan(&n)
	})
	return n, err
}
