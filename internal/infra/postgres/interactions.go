package postgres

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// InsertInteraction appends one question/answer exchange and returns its id.
func (s *Store) InsertInteraction(ctx context.Context, in *domain.Interaction) (string, error) {
	ctx, span := tracer.Start(ctx, "Postgres.InsertInteraction")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", in.ConversationID))

	id := uuid.NewString()
	err := s.exec(ctx, "interactions", `
		INSERT INTO interactions (id, region_id, conversation_id, user_question, ai_answer, suggested_items)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, in.RegionID, in.ConversationID, in.UserQuestion, in.AIAnswer, nonNil(in.SuggestedItems))
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateInteractionFeedback stores the user's feedback on an interaction.
func (s *Store) UpdateInteractionFeedback(ctx context.Context, id, feedback string) error {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateInteractionFeedback")
	defer span.End()
	span.SetAttributes(attribute.String("interaction.id", id))

	return s.run(ctx, "interactions", func() error {
		tag, err := s.pool.Exec(ctx, `UPDATE interactions SET user_feedback = $2 WHERE id = $1`, id, feedback)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "interaction", ID: id}
		}
		return nil
	})
}
