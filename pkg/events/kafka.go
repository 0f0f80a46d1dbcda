package events

import (
	"context"
	"time"

	"bikerental/pkg/kafka"
	"bikerental/pkg/logger"
)

const source = "rental-engine"

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
	timeout  time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (Publisher, error) {
	producer, err := kafka.NewProducer(brokers, topic)
	if err != nil {
		return nil, err
	}
	return &kafkaPublisher{
		producer: producer,
		log:      log,
		timeout:  5 * time.Second,
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, evt BookingEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	msg, err := kafka.NewJSONMessage(evt.BookingID, evt.Type, source, evt)
	if err != nil {
		p.log.Error("Failed to encode booking event", "type", evt.Type, "booking_id", evt.BookingID, "error", err)
		return
	}

	// Detach from the request context: the event outlives the response.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Error("Failed to publish booking event", "type", evt.Type, "booking_id", evt.BookingID, "error", err)
		return
	}

	p.log.Debug("Booking event published", "type", evt.Type, "booking_id", evt.BookingID)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
