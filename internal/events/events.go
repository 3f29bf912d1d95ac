// Package events publishes committed sales to Kafka so the print service
// and other consumers can pick them up.
package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"go-adega-pos/internal/checkout"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const TypeSaleCompleted = "sale.completed"

// Event is the envelope written to the topic.
type Event struct {
	EventID    string            `json:"event_id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Receipt    *checkout.Receipt `json:"receipt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends sale events. The sale is already committed when it runs,
// so failures are logged and dropped.
type Publisher struct {
	w messageWriter
}

// Brokers splits a comma separated broker list.
func Brokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers
// are configured.
func NewPublisher(brokersCSV, topic string) *Publisher {
	brokers := Brokers(brokersCSV)
	if len(brokers) == 0 {
		log.Println("KAFKA_BROKERS not set, sale events disabled")
		return &Publisher{}
	}
	return &Publisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Printf("events: failed to publish %d message(s): %v", len(msgs), err)
			}
		},
	}}
}

func (p *Publisher) Enabled() bool { return p.w != nil }

// SaleCompleted implements checkout.Notifier.
func (p *Publisher) SaleCompleted(ctx context.Context, r *checkout.Receipt) {
	if p.w == nil || r == nil || r.Sale == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		Type:       TypeSaleCompleted,
		OccurredAt: time.Now().UTC(),
		Receipt:    r,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: encode sale %d: %v", r.Sale.ID, err)
		return
	}
	msg := kafka.Message{Key: []byte(r.Sale.Reference), Value: data, Time: ev.OccurredAt}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: publish sale %d: %v", r.Sale.ID, err)
	}
}

func (p *Publisher) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}
