package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
)

const (
	// QueueEvents holds post-commit POS events waiting for a worker.
	QueueEvents = "jobs:pos_events"
	// QueueDelayed is a sorted set of jobs waiting for their retry time.
	QueueDelayed = "jobs:pos_events:delayed"
)

// Job is the envelope stored in Redis for each event.
type Job struct {
	ID       string      `json:"id"`
	Event    event.Event `json:"event"`
	Attempts int         `json:"attempts"`
}

// Dispatcher enqueues events into a Redis list. It implements event.Publisher.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Publish pushes the event onto QueueEvents.
func (d *Dispatcher) Publish(ctx context.Context, evt event.Event) error {
	encoded, err := json.Marshal(Job{ID: uuid.NewString(), Event: evt})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, QueueEvents, encoded).Err()
}

var _ event.Publisher = (*Dispatcher)(nil)
