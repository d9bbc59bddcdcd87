package queue

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes order events keyed by order uuid, so events of
// one order stay on one partition in commit order.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.AggregateID),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.ID)},
			{Key: "event_type", Value: []byte(msg.Type)},
		},
	})
}
