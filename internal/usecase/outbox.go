package usecase

import (
	"strconv"
	"time"

	"github.com/iho/emart/internal/domain"
)

func newOutboxEvent(idGen IDGenerator, aggregateType string, aggregateID int64, eventType string, payload map[string]any, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   strconv.FormatInt(aggregateID, 10),
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
