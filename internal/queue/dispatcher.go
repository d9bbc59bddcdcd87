package queue

import (
	"context"
	"log"
	"time"

	"odenehouk/internal/repository"
)

// Dispatcher relays committed outbox rows to a Publisher. Delivery is at
// least once: a row is marked published only after Publish succeeds. Rows of
// one aggregate go out in creation order, so a failed row holds back the rest
// of its aggregate until it is published or parked after MaxAttempts.
type Dispatcher struct {
	Repo         *repository.OutboxRepository
	Publisher    Publisher
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce publishes one batch and returns how many rows were published.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	events, err := d.Repo.FindUnpublished(d.BatchSize, d.MaxAttempts)
	if err != nil {
		log.Printf("[outbox] load unpublished: %v", err)
		return 0
	}

	published := 0
	blocked := make(map[string]bool)
	for _, evt := range events {
		if blocked[evt.AggregateID] {
			continue
		}
		err := d.Publisher.Publish(ctx, Message{
			ID:          evt.ID,
			Type:        evt.Type,
			AggregateID: evt.AggregateID,
			Payload:     []byte(evt.Payload),
		})
		if err != nil {
			log.Printf("[outbox] publish %s (%s): %v", evt.ID, evt.Type, err)
			blocked[evt.AggregateID] = true
			if err := d.Repo.IncrementAttempts(evt.ID); err != nil {
				log.Printf("[outbox] bump attempts for %s: %v", evt.ID, err)
				continue
			}
			if d.MaxAttempts > 0 && evt.Attempts+1 >= d.MaxAttempts {
				log.Printf("[outbox] parking %s (%s) for %s after %d attempts", evt.ID, evt.Type, evt.AggregateID, evt.Attempts+1)
			}
			continue
		}
		if err := d.Repo.MarkPublished(evt.ID); err != nil {
			log.Printf("[outbox] mark %s published: %v", evt.ID, err)
			continue
		}
		published++
	}
	return published
}
