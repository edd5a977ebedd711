package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers entity lifecycle events such as "ad.updated".
type Publisher interface {
	Publish(ctx context.Context, entity, event string, id int64, payload any) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes one message keyed "<entity>-<event>-<id>", e.g. "ad-created-1".
func (p *KafkaPublisher) Publish(ctx context.Context, entity, event string, id int64, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%s-%d", entity, event, id)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(entity + "." + event)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, int64, any) error { return nil }
func (NopPublisher) Close() error                                               { return nil }
