package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// InsertInteraction appends one question/answer exchange and returns its id.
func (c *Client) InsertInteraction(ctx context.Context, in *domain.Interaction) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertInteraction")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", in.ConversationID))

	suggested := in.SuggestedItems
	if suggested == nil {
		suggested = []string{}
	}

	var id string
	err := c.call(ctx, "interactions", func() error {
		body, err := c.doPost(ctx, "interactions", map[string]any{
			"region_id":       in.RegionID,
			"conversation_id": in.ConversationID,
			"user_question":   in.UserQuestion,
			"ai_answer":       in.AIAnswer,
			"suggested_items": suggested,
		})
		if err != nil {
			return err
		}
		var rows []domain.Interaction
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode interaction: %w", err)
		}
		if len(rows) == 0 || rows[0].ID == "" {
			return fmt.Errorf("insert into interactions returned no id")
		}
		id = rows[0].ID
		return nil
	})
	return id, err
}

// UpdateInteractionFeedback stores the user's feedback on an interaction.
func (c *Client) UpdateInteractionFeedback(ctx context.Context, id, feedback string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInteractionFeedback")
	defer span.End()
	span.SetAttributes(attribute.String("interaction.id", id))

	return c.call(ctx, "interactions", func() error {
		body, err := c.doPatch(ctx, "interactions?id=eq."+url.QueryEscape(id), map[string]any{
			"user_feedback": feedback,
		})
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "interaction", ID: id}
		}
		return nil
	})
}
