package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"profile-service/config"

	"github.com/segmentio/kafka-go"
)

const (
	AccountRegistered        = "account.registered"
	AccountDeleted           = "account.deleted"
	ProfileUpserted          = "profile.upserted"
	ProfileExperienceAdded   = "profile.experience_added"
	ProfileExperienceRemoved = "profile.experience_removed"
	PostCreated              = "post.created"
	PostDeleted              = "post.deleted"
)

// Event announces a committed change to one aggregate.
type Event struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OwnerID     string    `json:"owner_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func New(eventType, aggregateID, ownerID string) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		OwnerID:     ownerID,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by aggregate id so that the
// events of one aggregate stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
