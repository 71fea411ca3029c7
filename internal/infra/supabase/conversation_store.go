package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// ============================================================
// Conversations — focus and suggestion snapshots as jsonb
// ============================================================

type conversationRow struct {
	ID             string        `json:"id"`
	RegionID       string        `json:"region_id"`
	FocusedItem    *domain.Item  `json:"focused_item"`
	SuggestedItems []domain.Item `json:"suggested_items"`
}

// CreateConversation inserts an empty conversation. Re-creating an existing
// id is a no-op merge.
func (c *Client) CreateConversation(ctx context.Context, id, regionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateConversation")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	return c.call(ctx, "conversations", func() error {
		_, err := c.doUpsert(ctx, "conversations", map[string]any{
			"id":        id,
			"region_id": regionID,
		})
		return err
	})
}

// GetConversation returns (nil, nil) when id is unknown.
func (c *Client) GetConversation(ctx context.Context, id string) (*chatdomain.ConversationState, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetConversation")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	var state *chatdomain.ConversationState
	err := c.call(ctx, "conversations", func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "conversations?id=eq."+url.QueryEscape(id)+"&limit=1")
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return nil
		}
		var rows []conversationRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode conversation: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		r := rows[0]
		state = &chatdomain.ConversationState{
			ConversationID: r.ID,
			RegionID:       r.RegionID,
			FocusedItem:    r.FocusedItem,
			SuggestedItems: r.SuggestedItems,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SaveFocus replaces the focused item snapshot. A nil item clears it.
func (c *Client) SaveFocus(ctx context.Context, id, regionID string, item *domain.Item) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveFocus")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	return c.call(ctx, "conversations", func() error {
		_, err := c.doUpsert(ctx, "conversations", map[string]any{
			"id":           id,
			"region_id":    regionID,
			"focused_item": item,
		})
		return err
	})
}

// SaveSuggestions replaces the suggested candidates snapshot.
func (c *Client) SaveSuggestions(ctx context.Context, id, regionID string, items []domain.Item) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveSuggestions")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", id),
		attribute.Int("conversation.suggestions", len(items)),
	)

	if items == nil {
		items = []domain.Item{}
	}
	return c.call(ctx, "conversations", func() error {
		_, err := c.doUpsert(ctx, "conversations", map[string]any{
			"id":              id,
			"region_id":       regionID,
			"suggested_items": items,
		})
		return err
	})
}
