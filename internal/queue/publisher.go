package queue

import (
	"context"
	"log"
)

// Message is an outbox event on its way to subscribers.
type Message struct {
	ID          string
	Type        string
	AggregateID string
	Payload     []byte
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes events to the process log. It stands in for a broker
// when none is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, msg Message) error {
	log.Printf("[outbox] %s %s %s", msg.Type, msg.AggregateID, msg.Payload)
	return nil
}

func (LogPublisher) Close() error { return nil }
