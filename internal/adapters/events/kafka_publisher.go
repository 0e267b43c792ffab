package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"tour-playback-service/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes run events as JSON, keyed by run id so every event of
// a run lands on the same partition in order.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher: topic is empty")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{w: w}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev domain.RunEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("publish %s: encode: %w", ev.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.RunID),
		Value: value,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s run_id=%s: %w", ev.Type, ev.RunID, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.w.Close()
}
