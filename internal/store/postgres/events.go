package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/domain"
)

// InsertEvent appends a domain event row.
func (s *Store) InsertEvent(ctx context.Context, topic string, payload []byte) (domain.DomainEvent, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	ev := domain.DomainEvent{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: payload,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, payload, occurred_at)
		VALUES ($1, $2, $3, now())
		RETURNING occurred_at`,
		ev.ID, ev.Topic, ev.Payload).Scan(&ev.OccurredAt)
	if err != nil {
		return domain.DomainEvent{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}
