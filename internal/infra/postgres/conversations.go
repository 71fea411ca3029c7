package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// CreateConversation inserts an empty conversation; an existing id is left untouched.
func (s *Store) CreateConversation(ctx context.Context, id, regionID string) error {
	ctx, span := tracer.Start(ctx, "Postgres.CreateConversation")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	return s.exec(ctx, "conversations", `
		INSERT INTO conversations (id, region_id) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, regionID)
}

// GetConversation returns (nil, nil) when id is unknown.
func (s *Store) GetConversation(ctx context.Context, id string) (*chatdomain.ConversationState, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetConversation")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	var state *chatdomain.ConversationState
	err := s.run(ctx, "conversations", func() error {
		var (
			cs        chatdomain.ConversationState
			focused   []byte
			suggested []byte
		)
		err := s.pool.QueryRow(ctx, `
			SELECT id::text, region_id::text, focused_item, suggested_items
			FROM conversations WHERE id = $1
		`, id).Scan(&cs.ConversationID, &cs.RegionID, &focused, &suggested)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(focused) > 0 {
			if err := json.Unmarshal(focused, &cs.FocusedItem); err != nil {
				return fmt.Errorf("decode focused_item: %w", err)
			}
		}
		if len(suggested) > 0 {
			if err := json.Unmarshal(suggested, &cs.SuggestedItems); err != nil {
				return fmt.Errorf("decode suggested_items: %w", err)
			}
		}
		state = &cs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SaveFocus replaces the focused item snapshot. A nil item clears it.
func (s *Store) SaveFocus(ctx context.Context, id, regionID string, item *domain.Item) error {
	ctx, span := tracer.Start(ctx, "Postgres.SaveFocus")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode focused_item: %w", err)
	}
	return s.exec(ctx, "conversations", `
		INSERT INTO conversations (id, region_id, focused_item) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET focused_item = EXCLUDED.focused_item, updated_at = now()
	`, id, regionID, raw)
}

// SaveSuggestions replaces the suggested candidates snapshot.
func (s *Store) SaveSuggestions(ctx context.Context, id, regionID string, items []domain.Item) error {
	ctx, span := tracer.Start(ctx, "Postgres.SaveSuggestions")
	defer span.End()
	span.SetAttributes(attribute.Int("conversation.suggestions", len(items)))

	if items == nil {
		items = []domain.Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode suggested_items: %w", err)
	}
	return s.exec(ctx, "conversations", `
		INSERT INTO conversations (id, region_id, suggested_items) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET suggested_items = EXCLUDED.suggested_items, updated_at = now()
	`, id, regionID, raw)
}
