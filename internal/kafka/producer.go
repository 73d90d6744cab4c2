package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"club95/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer builds a producer that routes messages by per-message topic.
func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishOrderCreated streams a committed purchase to downstream
// consumers (mailers, analytics).
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(TopicOrderCreated, order.ID, order)
}

// PublishOrderRefunded streams the refund summary of a tier deletion.
func (p *Producer) PublishOrderRefunded(summary models.RefundSummary) error {
	return p.publish(TopicOrderRefunded, summary.TicketID, summary)
}

// PublishEventStatusChanged streams lifecycle transitions (OPEN, SOLD
// OUT, INACTIVE) so listings elsewhere can refresh.
func (p *Producer) PublishEventStatusChanged(eventID, eventStatus string) error {
	return p.publish(TopicEventStatusChanged, eventID, map[string]string{
		"event_id": eventID,
		"status":   eventStatus,
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
