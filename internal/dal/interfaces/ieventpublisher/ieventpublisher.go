package ieventpublisher

import (
	"context"

	"github.com/corray333/fasttech/internal/service/models/event"
)

// IEventPublisher publishes envelopes without reporting failures to the caller.
type IEventPublisher interface {
	Publish(ctx context.Context, eventType event.Type, subjectID string, payload any)
}
