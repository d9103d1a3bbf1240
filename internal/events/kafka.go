package events

import (
	"context"
	"encoding/json"

	"casekart/internal/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes order events to a single topic, keyed by order id so
// one order's transitions stay in partition order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *KafkaPublisher) PublishOrder(ctx context.Context, eventType string, o domain.Order) error {
	payload, err := json.Marshal(OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalPaise:  o.TotalPaise,
		IsPaid:      o.IsPaid,
		IsDelivered: o.IsDelivered,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
