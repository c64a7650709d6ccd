package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaRelay publishes events to a Kafka topic keyed by doctor and
// rebroadcasts consumed messages into the local hub. Each instance must use
// its own consumer group so that every instance sees every event.
type KafkaRelay struct {
	writer *kafka.Writer
	reader *kafka.Reader
	hub    *Hub
	log    *logrus.Logger
}

func NewKafkaRelay(brokers []string, topic, groupID string, hub *Hub, log *logrus.Logger) *KafkaRelay {
	return &KafkaRelay{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6, // 10MB
		}),
		hub: hub,
		log: log,
	}
}

func (k *KafkaRelay) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Name, err)
	}

	msg := kafka.Message{Value: data}
	if event.DoctorID != nil {
		// same doctor, same partition: per doctor order is kept
		msg.Key = []byte(event.DoctorID.String())
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.Name, err)
	}
	return nil
}

// Run consumes the topic and forwards messages until ctx ends
func (k *KafkaRelay) Run(ctx context.Context) error {
	k.log.Infof("Relaying events from kafka topic %s", k.reader.Config().Topic)
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			k.log.Warnf("Ignoring malformed event at offset %d: %+v", msg.Offset, err)
			continue
		}
		k.hub.Broadcast(event)
	}
}

func (k *KafkaRelay) Close() error {
	return errors.Join(k.writer.Close(), k.reader.Close())
}
