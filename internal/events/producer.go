// Package events publishes offer lifecycle records to Kafka. Emission is
// best effort: a broker outage must never fail the user-facing request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/techwithPranab/ride-offers/internal/models"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Producer{writer: w}
}

// PublishOfferEvent writes one event keyed by offer id, so all events for
// an offer land on the same partition in order.
func (p *Producer) PublishOfferEvent(ev models.OfferEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.OfferID), Value: b})
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
